package sim

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"
)

const (
	// per-attempt timeout while probing for a live server
	probeTimeout = 1 * time.Second
	// timeout once the server answered its first version query
	operatingTimeout = 60 * time.Second
)

// Client talks to the simulator over its JSON bridge. It implements
// WorldAPI.
type Client struct {
	http *resty.Client
	port int
}

var _ WorldAPI = &Client{}

func NewClient(port int) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(fmt.Sprintf("http://localhost:%d", port)).
			SetTimeout(probeTimeout),
		port: port,
	}
}

func (c *Client) Port() int {
	return c.port
}

func (c *Client) SetTimeout(d time.Duration) {
	c.http.SetTimeout(d)
}

// Close drops the handle. The bridge has no protocol-level close, so
// this only releases local resources.
func (c *Client) Close() {
	_ = c.http.Close()
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status())
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetContentType("application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("POST %s: %s", path, resp.Status())
	}
	return nil
}

func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.get(ctx, "/version", &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

func (c *Client) SpawnVehicle(ctx context.Context, at Transform) (ActorID, error) {
	body := struct {
		Type      string    `json:"type"`
		Transform Transform `json:"transform"`
	}{Type: "vehicle", Transform: at}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/actor/spawn", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("spawn rejected at (%.1f, %.1f)", at.Location.X, at.Location.Y)
	}
	return ActorID(out.ID), nil
}

func (c *Client) DestroyActor(ctx context.Context, id ActorID) error {
	return c.post(ctx, fmt.Sprintf("/actor/%s/destroy", id), nil, nil)
}

func (c *Client) ActorsByType(ctx context.Context, pattern string) ([]ActorID, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := c.get(ctx, fmt.Sprintf("/actors?type=%s", pattern), &out); err != nil {
		return nil, err
	}
	ids := make([]ActorID, len(out.IDs))
	for i, id := range out.IDs {
		ids[i] = ActorID(id)
	}
	return ids, nil
}

func (c *Client) SetTransform(ctx context.Context, id ActorID, t Transform) error {
	return c.post(ctx, fmt.Sprintf("/actor/%s/transform", id), t, nil)
}

func (c *Client) GetTransform(ctx context.Context, id ActorID) (Transform, error) {
	var out Transform
	err := c.get(ctx, fmt.Sprintf("/actor/%s/transform", id), &out)
	return out, err
}

func (c *Client) Velocity(ctx context.Context, id ActorID) (Vec3, error) {
	var out Vec3
	err := c.get(ctx, fmt.Sprintf("/actor/%s/velocity", id), &out)
	return out, err
}

func (c *Client) ApplyControl(ctx context.Context, id ActorID, control VehicleControl) error {
	return c.post(ctx, fmt.Sprintf("/actor/%s/control", id), control, nil)
}

func (c *Client) SetAutopilot(ctx context.Context, id ActorID, enabled bool) error {
	body := struct {
		Enabled bool `json:"enabled"`
	}{Enabled: enabled}
	return c.post(ctx, fmt.Sprintf("/actor/%s/autopilot", id), body, nil)
}

func (c *Client) GetWeather(ctx context.Context) (Weather, error) {
	var out Weather
	err := c.get(ctx, "/weather", &out)
	return out, err
}

func (c *Client) attachSensor(ctx context.Context, actor ActorID, body interface{}) (SensorID, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, fmt.Sprintf("/actor/%s/sensors", actor), body, &out); err != nil {
		return "", err
	}
	return SensorID(out.ID), nil
}

func (c *Client) AttachCamera(ctx context.Context, actor ActorID, xRes, yRes int) (SensorID, error) {
	return c.attachSensor(ctx, actor, struct {
		Kind string `json:"kind"`
		XRes int    `json:"x_res"`
		YRes int    `json:"y_res"`
	}{Kind: "camera.rgb", XRes: xRes, YRes: yRes})
}

func (c *Client) AttachCollisionSensor(ctx context.Context, actor ActorID) (SensorID, error) {
	return c.attachSensor(ctx, actor, struct {
		Kind string `json:"kind"`
	}{Kind: "collision"})
}

func (c *Client) AttachLaneSensor(ctx context.Context, actor ActorID) (SensorID, error) {
	return c.attachSensor(ctx, actor, struct {
		Kind string `json:"kind"`
	}{Kind: "lane_invasion"})
}

func (c *Client) DetachSensor(ctx context.Context, id SensorID) error {
	return c.post(ctx, fmt.Sprintf("/sensor/%s/detach", id), nil, nil)
}

func (c *Client) CameraImage(ctx context.Context, id SensorID) (Image, error) {
	var out Image
	err := c.get(ctx, fmt.Sprintf("/sensor/%s/image", id), &out)
	return out, err
}

func (c *Client) CollisionCounts(ctx context.Context, id SensorID) (CollisionCounts, error) {
	var out CollisionCounts
	err := c.get(ctx, fmt.Sprintf("/sensor/%s/collisions", id), &out)
	return out, err
}

func (c *Client) LaneFlags(ctx context.Context, id SensorID) (LaneFlags, error) {
	var out LaneFlags
	err := c.get(ctx, fmt.Sprintf("/sensor/%s/lane", id), &out)
	return out, err
}
