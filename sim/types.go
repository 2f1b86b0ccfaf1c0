package sim

import "context"

// ActorID is the simulator-side identifier of a spawned actor.
type ActorID string

// SensorID is the simulator-side identifier of an attached sensor.
type SensorID string

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Rotation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

type Transform struct {
	Location Vec3     `json:"location"`
	Rotation Rotation `json:"rotation"`
}

type VehicleControl struct {
	Throttle  float64 `json:"throttle"`
	Steer     float64 `json:"steer"`
	Brake     float64 `json:"brake"`
	HandBrake bool    `json:"hand_brake"`
	Reverse   bool    `json:"reverse"`
}

type Weather struct {
	Cloudiness            float64 `json:"cloudiness"`
	Precipitation         float64 `json:"precipitation"`
	PrecipitationDeposits float64 `json:"precipitation_deposits"`
	WindIntensity         float64 `json:"wind_intensity"`
}

// CollisionCounts are the running counters of a collision sensor since
// it was attached.
type CollisionCounts struct {
	Vehicles    int `json:"vehicles"`
	Pedestrians int `json:"pedestrians"`
	Other       int `json:"other"`
}

// LaneFlags are the latest lane-invasion sensor flags.
type LaneFlags struct {
	OffLane bool `json:"off_lane"`
	OffRoad bool `json:"off_road"`
}

// Image is a decoded camera frame. Pixels is row-major with Depth
// channels per pixel, len = Height*Width*Depth.
type Image struct {
	Height int       `json:"height"`
	Width  int       `json:"width"`
	Depth  int       `json:"depth"`
	Pixels []float64 `json:"pixels"`
}

func (im Image) Empty() bool {
	return len(im.Pixels) == 0
}

// WorldAPI is the simulator protocol boundary: everything the
// environment needs from a running simulator. *Client implements it
// over the JSON bridge; tests substitute fault-injecting fakes.
type WorldAPI interface {
	ServerVersion(ctx context.Context) (string, error)

	SpawnVehicle(ctx context.Context, at Transform) (ActorID, error)
	DestroyActor(ctx context.Context, id ActorID) error
	ActorsByType(ctx context.Context, pattern string) ([]ActorID, error)

	SetTransform(ctx context.Context, id ActorID, t Transform) error
	GetTransform(ctx context.Context, id ActorID) (Transform, error)
	Velocity(ctx context.Context, id ActorID) (Vec3, error)
	ApplyControl(ctx context.Context, id ActorID, c VehicleControl) error
	SetAutopilot(ctx context.Context, id ActorID, enabled bool) error
	GetWeather(ctx context.Context) (Weather, error)

	AttachCamera(ctx context.Context, actor ActorID, xRes, yRes int) (SensorID, error)
	AttachCollisionSensor(ctx context.Context, actor ActorID) (SensorID, error)
	AttachLaneSensor(ctx context.Context, actor ActorID) (SensorID, error)
	DetachSensor(ctx context.Context, id SensorID) error

	CameraImage(ctx context.Context, id SensorID) (Image, error)
	CollisionCounts(ctx context.Context, id SensorID) (CollisionCounts, error)
	LaneFlags(ctx context.Context, id SensorID) (LaneFlags, error)
}
