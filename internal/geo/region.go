package geo

// Reference coordinates for the regions nodes can be deployed in.
var regionCoordinates = map[string]Coordinate{
	"us-east-1":      {Latitude: 40.7128, Longitude: -74.0060},
	"us-west-1":      {Latitude: 37.7749, Longitude: -122.4194},
	"eu-west-1":      {Latitude: 51.5074, Longitude: -0.1278},
	"ap-southeast-1": {Latitude: 1.3521, Longitude: 103.8198},
}

// RegionCoordinate returns the reference coordinate for region. Unknown
// regions map to (0, 0).
func RegionCoordinate(region string) Coordinate {
	return regionCoordinates[region]
}

// KnownRegion reports whether region has a reference coordinate.
func KnownRegion(region string) bool {
	_, ok := regionCoordinates[region]
	return ok
}
