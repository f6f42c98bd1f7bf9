package astro

import "math"

// WGS-84 ellipsoid parameters (km).
const (
	wgs84A  = 6378.137
	wgs84F  = 1.0 / 298.257223563
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// GeodeticToECF converts a geodetic position to Earth-fixed kilometres on
// the WGS-84 ellipsoid.
func GeodeticToECF(g Geodetic) Vector3 {
	lat := g.LatDeg * Deg2Rad
	lon := g.LonDeg * Deg2Rad

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Vector3{
		X: (N + g.AltKm) * cosLat * math.Cos(lon),
		Y: (N + g.AltKm) * cosLat * math.Sin(lon),
		Z: (N*(1-wgs84E2) + g.AltKm) * sinLat,
	}
}

// ECFToGeodetic converts Earth-fixed kilometres to geodetic coordinates
// using the iterative Bowring method, which converges in a few rounds for
// Earth orbits.
func ECFToGeodetic(ecf Vector3) Geodetic {
	lon := math.Atan2(ecf.Y, ecf.X)
	p := math.Sqrt(ecf.X*ecf.X + ecf.Y*ecf.Y)

	lat := math.Atan2(ecf.Z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(ecf.Z+wgs84E2*N*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(ecf.Z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg: lat * Rad2Deg,
		LonDeg: lon * Rad2Deg,
		AltKm:  alt,
	}
}
