// Package feed normalizes raw hazard feeds into the common event model.
//
// One normalizer exists per source, and all of them are pure: bytes in,
// events and counts out, no network and no clock. Each fetched record lands
// in exactly one counting bucket, checked in a fixed order: malformed,
// duplicate, outside the look-back window, invalid coordinates, and finally
// the located event list. That ordering is part of the contract; it keeps
// counts reproducible for identical payloads.
//
// Feed quirks worth knowing:
//
//   - USGS earthquake GeoJSON stores coordinates as [longitude, latitude,
//     depth-km] and timestamps as milliseconds since the Unix epoch. Feature
//     IDs are the USGS event codes and are trusted as-is.
//   - GDACS RSS puts the episode time in dc:date, which is preferred over
//     pubDate. Coordinates arrive as geo:lat with either geo:long or
//     geo:lon, sometimes nested under geo:Point. Items with no usable
//     coordinates are kept on an unlocated side list because a GDACS alert
//     without a point is still an alert. The gdacs:alertlevel color maps to
//     an ordinal alert_level measure: green 1, orange 2, red 3.
//   - NASA FIRMS is a headered CSV of VIIRS detections. acq_time is an HHMM
//     integer whose leading zeros are gone by the time it reaches the CSV,
//     so "312" means 03:12 UTC. Rows have no ID; a deterministic hash of
//     (latitude, longitude, acq_date, acq_time, satellite) stands in.
//
// Severity is never unified across feeds. A magnitude, a brightness in
// Kelvin, and an alert level each keep their own measure kind.
package feed
