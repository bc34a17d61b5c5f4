// Package domain holds the source-agnostic model for hazard events and the
// pure geospatial core: haversine distance, AOI filtering, and the k-way
// aggregation of per-source results into a snapshot.
//
// Everything here is synchronous and deterministic. Fetching, geocoding, and
// any other I/O live in adapter packages; the functions in this package can
// be exercised with plain values and no network.
//
// Coordinate conventions:
//
//   - Latitude and longitude are WGS-84 decimal degrees. Valid ranges are
//     [-90, 90] and [-180, 180]; anything outside is rejected during
//     normalization, never clamped or defaulted.
//   - (0, 0) is a valid coordinate pair. Feeds that omit coordinates surface
//     that as a missing-coordinates record, not as a zero value.
//   - Distances use the haversine formula with a mean Earth radius of
//     6371 km, which is accurate to roughly 0.5% and treats the AOI boundary
//     as inclusive.
//
// Severity readings keep their native scale: an earthquake magnitude, a fire
// brightness in Kelvin, and a GDACS alert level are different kinds and are
// tagged as such on the Measure type rather than coerced to one number.
package domain
