package carla

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/planner"
	"github.com/drivesim/carla-rl-env/sim"
)

const (
	// resetRetries bounds the attempts of one Reset call; the server is
	// torn down and relaunched between attempts.
	resetRetries = 5
	// spawnRetries bounds the spawn attempts of one hard respawn.
	spawnRetries = 5
	// groundZ is the nominal road height fed to the planner.
	groundZ = 22.0
	// gridUnit is the edge length of one coarse map cell.
	gridUnit = 100.0
)

// Timings are the settle and retry waits of the lifecycle state
// machine. Tests zero them.
type Timings struct {
	SpawnSettle     time.Duration // after a spawn, before verifying the pose
	SpawnRetryWait  time.Duration // before retrying a rejected spawn
	SoftResetSettle time.Duration // after teleporting, before control resumes
	CleanupSettle   time.Duration // after destroying leftover actors
	ConnectTimeout  time.Duration // bound on launching plus connecting
}

func DefaultTimings() Timings {
	return Timings{
		SpawnSettle:     400 * time.Millisecond,
		SpawnRetryWait:  500 * time.Millisecond,
		SoftResetSettle: 300 * time.Millisecond,
		CleanupSettle:   400 * time.Millisecond,
		ConnectTimeout:  2 * time.Minute,
	}
}

// Launcher starts and kills simulator processes. *sim.Supervisor is
// the production implementation.
type Launcher interface {
	Launch(ctx context.Context) (*sim.Process, error)
	Terminate(p *sim.Process)
}

// ConnectFunc dials the bridge of a launched simulator.
type ConnectFunc func(ctx context.Context, port int) (sim.WorldAPI, error)

// Deps are the injectable collaborators of an environment. Zero fields
// get production defaults.
type Deps struct {
	Launcher Launcher
	Connect  ConnectFunc
	Planner  planner.Planner
	Manual   *ManualBridge
	Logger   *zap.Logger
	Timings  *Timings
	Seed     int64
}

// MultiAgentEnv drives one simulator instance with a fixed set of
// agents. It implements core.Environment: Reset brings every agent
// into a fresh episode, Step advances the addressed agents one control
// tick each, in agent id order. Not safe for concurrent use.
type MultiAgentEnv struct {
	envConfig EnvConfig
	agentIDs  []core.AgentID

	launcher Launcher
	connect  ConnectFunc
	planner  planner.Planner
	manual   *ManualBridge
	timings  Timings
	rng      *rand.Rand
	log      *zap.Logger

	proc    *sim.Process
	world   sim.WorldAPI
	weather sim.Weather

	actors   map[core.AgentID]*actorState
	encoder  *obsEncoder
	obs      core.ObservationMap
	didReset bool
}

var _ core.Environment = &MultiAgentEnv{}

func NewMultiAgentEnv(config *MultiEnvConfig, deps *Deps) (*MultiAgentEnv, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps == nil {
		deps = &Deps{}
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timings := DefaultTimings()
	if deps.Timings != nil {
		timings = *deps.Timings
	}
	seed := deps.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	env := &MultiAgentEnv{
		envConfig: config.Env,
		launcher:  deps.Launcher,
		connect:   deps.Connect,
		planner:   deps.Planner,
		manual:    deps.Manual,
		timings:   timings,
		rng:       rand.New(rand.NewSource(seed)),
		log:       log,
		actors:    make(map[core.AgentID]*actorState),
		encoder:   newObsEncoder(config.Env.FrameStack),
		obs:       make(core.ObservationMap),
	}

	for id, actorConfig := range config.Actors {
		if actorConfig.ControlMode() == Manual && env.manual == nil {
			return nil, fmt.Errorf("%w: actor %s uses manual control but no manual bridge is wired",
				ErrConfig, id)
		}
		rewardFn, err := RewardFunction(actorConfig.RewardFunction)
		if err != nil {
			return nil, err
		}
		env.actors[id] = &actorState{id: id, config: actorConfig, reward: rewardFn}
		env.agentIDs = append(env.agentIDs, id)
	}
	sort.Slice(env.agentIDs, func(i, j int) bool { return env.agentIDs[i] < env.agentIDs[j] })

	if env.launcher == nil {
		env.launcher = sim.NewSupervisor(sim.SupervisorConfig{
			Binary:     config.Env.ServerBinary,
			ServerMap:  config.Env.ServerMap,
			Render:     config.Env.Render,
			RenderXRes: config.Env.RenderXRes,
			RenderYRes: config.Env.RenderYRes,
		}, sim.DefaultRegistry(), log)
	}
	if env.connect == nil {
		env.connect = func(ctx context.Context, port int) (sim.WorldAPI, error) {
			return sim.Connect(ctx, port, log)
		}
	}
	if env.planner == nil {
		env.planner = planner.NewStraightLine()
	}

	return env, nil
}

// Reset brings every agent into a fresh episode and returns one
// observation per agent. Agents without a live vehicle are hard
// respawned under a new episode id; finished agents with a live
// vehicle are teleported back to their start (soft reset); agents
// still mid-episode are left untouched. A failed attempt tears the
// server down and retries from scratch, up to resetRetries times.
func (e *MultiAgentEnv) Reset() (core.ObservationMap, error) {
	var lastErr error
	for attempt := 1; attempt <= resetRetries; attempt++ {
		if e.world == nil {
			if err := e.initServer(); err != nil {
				lastErr = err
				e.log.Error("simulator launch failed",
					zap.Int("attempt", attempt), zap.Error(err))
				e.clearServerState()
				continue
			}
		}

		obs, err := e.resetWorld()
		if err == nil {
			e.didReset = true
			return obs, nil
		}
		lastErr = err
		e.log.Error("reset attempt failed",
			zap.Int("attempt", attempt), zap.Error(err))
		e.clearServerState()
	}
	return nil, fmt.Errorf("reset failed after %d attempts: %w", resetRetries, lastErr)
}

func (e *MultiAgentEnv) initServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timings.ConnectTimeout)
	defer cancel()

	// the launch context must outlive connect, the process is tied to it
	proc, err := e.launcher.Launch(context.Background())
	if err != nil {
		return fmt.Errorf("launching simulator: %w", err)
	}
	world, err := e.connect(ctx, proc.Port)
	if err != nil {
		e.launcher.Terminate(proc)
		return fmt.Errorf("connecting to simulator: %w", err)
	}
	e.proc = proc
	e.world = world
	return nil
}

func (e *MultiAgentEnv) resetWorld() (core.ObservationMap, error) {
	ctx := context.Background()

	weather, err := e.world.GetWeather(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading weather: %w", err)
	}
	e.weather = weather

	if !e.anyLiveActor() {
		if err := e.destroyLeftovers(ctx); err != nil {
			return nil, err
		}
	}

	// the first frame of the new episode must not stack against the
	// last frame of the old one
	e.encoder.reset()

	for _, id := range e.agentIDs {
		st := e.actors[id]
		switch {
		case st.actor == "":
			if err := e.hardRespawn(ctx, st); err != nil {
				return nil, fmt.Errorf("actor %s: %w", id, err)
			}
		case st.done:
			if err := e.softReset(ctx, st); err != nil {
				return nil, fmt.Errorf("actor %s: %w", id, err)
			}
		default:
			// mid-episode, keep driving
			continue
		}

		st.resetEpisodeCounters()
		m, err := e.readMeasurement(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("actor %s: %w", id, err)
		}
		st.prevMeasurement = m

		image, err := e.world.CameraImage(ctx, st.camera)
		if err != nil {
			return nil, fmt.Errorf("actor %s: reading camera: %w", id, err)
		}
		e.obs[id] = e.encoder.Encode(image, m, st.config.SendMeasurements)
	}

	out := make(core.ObservationMap, len(e.agentIDs))
	for _, id := range e.agentIDs {
		out[id] = e.obs[id]
	}
	return out, nil
}

func (e *MultiAgentEnv) anyLiveActor() bool {
	for _, st := range e.actors {
		if st.actor != "" {
			return true
		}
	}
	return false
}

// destroyLeftovers removes vehicles surviving from a previous session
// of the same server.
func (e *MultiAgentEnv) destroyLeftovers(ctx context.Context) error {
	leftovers, err := e.world.ActorsByType(ctx, "vehicle*")
	if err != nil {
		return fmt.Errorf("listing leftover vehicles: %w", err)
	}
	for _, id := range leftovers {
		if err := e.world.DestroyActor(ctx, id); err != nil {
			return fmt.Errorf("destroying leftover vehicle %s: %w", id, err)
		}
	}
	if len(leftovers) > 0 {
		e.log.Debug("destroyed leftover vehicles", zap.Int("count", len(leftovers)))
		time.Sleep(e.timings.CleanupSettle)
	}
	return nil
}

// hardRespawn resolves a fresh scenario for the actor and spawns its
// vehicle and sensors under a new episode id. Spawns that the server
// rejects or that end up below ground are retried a bounded number of
// times.
func (e *MultiAgentEnv) hardRespawn(ctx context.Context, st *actorState) error {
	scenario, err := pickScenario(e.rng, st.config.Scenarios)
	if err != nil {
		return err
	}
	start, end, err := resolvePositions(e.envConfig.Town(), scenario)
	if err != nil {
		return err
	}
	st.scenario = scenario
	st.startPos = start
	st.endPos = end
	st.startCoord = coarseCoord(start)
	st.endCoord = coarseCoord(end)
	st.episodeID = newEpisodeID()

	pose := transformAt(start)
	var spawnErr error
	for try := 1; try <= spawnRetries; try++ {
		actor, err := e.world.SpawnVehicle(ctx, pose)
		if err != nil {
			spawnErr = err
			time.Sleep(e.timings.SpawnRetryWait)
			continue
		}
		time.Sleep(e.timings.SpawnSettle)

		t, err := e.world.GetTransform(ctx, actor)
		if err != nil {
			spawnErr = err
			_ = e.world.DestroyActor(ctx, actor)
			time.Sleep(e.timings.SpawnRetryWait)
			continue
		}
		if t.Location.Z <= 0 {
			spawnErr = fmt.Errorf("vehicle sank below ground at (%.1f, %.1f)",
				t.Location.X, t.Location.Y)
			_ = e.world.DestroyActor(ctx, actor)
			time.Sleep(e.timings.SpawnRetryWait)
			continue
		}
		st.actor = actor
		spawnErr = nil
		break
	}
	if st.actor == "" {
		return fmt.Errorf("spawn failed after %d attempts: %w", spawnRetries, spawnErr)
	}

	if st.camera, err = e.world.AttachCamera(ctx, st.actor, e.envConfig.XRes, e.envConfig.YRes); err != nil {
		return fmt.Errorf("attaching camera: %w", err)
	}
	if st.config.collisionSensorOn() {
		if st.collision, err = e.world.AttachCollisionSensor(ctx, st.actor); err != nil {
			return fmt.Errorf("attaching collision sensor: %w", err)
		}
	}
	if st.config.laneSensorOn() {
		if st.lane, err = e.world.AttachLaneSensor(ctx, st.actor); err != nil {
			return fmt.Errorf("attaching lane sensor: %w", err)
		}
	}

	if st.config.LogMeasurements && e.envConfig.OutDir != "" {
		st.mlog = newMeasurementLog(e.envConfig.OutDir, st.episodeID, st.config.CompressMeasurements)
	}

	e.log.Info("spawned actor",
		zap.String("agent", string(st.id)),
		zap.String("episode", st.episodeID),
		zap.String("scenario", scenario.Name))
	return nil
}

// softReset teleports a finished actor back to its start pose and lets
// the physics settle. The scenario and episode id are kept.
func (e *MultiAgentEnv) softReset(ctx context.Context, st *actorState) error {
	if err := e.world.SetTransform(ctx, st.actor, transformAt(st.startPos)); err != nil {
		return fmt.Errorf("teleporting to start: %w", err)
	}
	time.Sleep(e.timings.SoftResetSettle)
	e.log.Debug("soft reset",
		zap.String("agent", string(st.id)),
		zap.String("episode", st.episodeID))
	return nil
}

// Step applies one action per addressed agent, in agent id order, and
// returns their observations, rewards, done flags and measurement
// infos. The done map additionally carries the DoneAll aggregate over
// every configured agent. A simulator fault mid-step degrades: the
// server is torn down and the last known observations are returned
// with zero rewards and every agent done.
func (e *MultiAgentEnv) Step(actions core.ActionMap, sCtx *core.StepContext) (*core.StepResult, error) {
	if !e.didReset || e.world == nil {
		return nil, ErrNotReset
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: empty action map", ErrConfig)
	}

	ids := make([]core.AgentID, 0, len(actions))
	for id := range actions {
		if _, ok := e.actors[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// decode everything up front so a malformed action cannot leave the
	// world half-stepped
	controls := make(map[core.AgentID]sim.VehicleControl, len(ids))
	for _, id := range ids {
		pair, err := decodeAction(actions[id], e.envConfig.DiscreteActions)
		if err != nil {
			return nil, fmt.Errorf("actor %s: %w", id, err)
		}
		controls[id] = toControl(pair, e.envConfig.SquashActionLogits)
	}

	ctx := context.Background()
	if sCtx != nil && sCtx.EpisodeContext != nil && sCtx.Context != nil {
		ctx = sCtx.Context
	}

	result := &core.StepResult{
		Observations: make(core.ObservationMap, len(ids)),
		Rewards:      make(core.RewardMap, len(ids)),
		Dones:        make(core.DoneMap, len(ids)+1),
		Infos:        make(core.InfoMap, len(ids)),
	}
	for _, id := range ids {
		obs, reward, done, m, err := e.stepActor(ctx, id, actions[id], controls[id])
		if err != nil {
			// TODO: scope mid-step faults to the failing actor instead of
			// ending the episode for everyone
			e.log.Error("simulator fault mid-step",
				zap.String("agent", string(id)), zap.Error(err))
			return e.degradedResult(), nil
		}
		result.Observations[id] = obs
		result.Rewards[id] = reward
		result.Dones[id] = done
		result.Infos[id] = m
	}
	result.Dones[core.DoneAll] = e.allDone()
	return result, nil
}

func (e *MultiAgentEnv) stepActor(ctx context.Context, id core.AgentID, action core.Action, control sim.VehicleControl) (*Observation, float64, bool, *Measurement, error) {
	st := e.actors[id]

	switch st.config.ControlMode() {
	case Manual:
		if latest, ok := e.manual.Latest(id); ok {
			control = latest
		}
		if err := e.world.ApplyControl(ctx, st.actor, control); err != nil {
			return nil, 0, false, nil, err
		}
	case Autopilot:
		if err := e.world.SetAutopilot(ctx, st.actor, true); err != nil {
			return nil, 0, false, nil, err
		}
	default:
		if err := e.world.ApplyControl(ctx, st.actor, control); err != nil {
			return nil, 0, false, nil, err
		}
	}

	m, err := e.readMeasurement(ctx, st)
	if err != nil {
		return nil, 0, false, nil, err
	}
	m.Action = action
	m.Control = control

	reward := st.reward(st.prevMeasurement, m)
	total := st.accumulate(reward)
	m.Reward = reward
	m.TotalReward = total

	st.steps++
	done := st.steps > st.scenario.MaxSteps ||
		m.NextCommand == planner.ReachGoal ||
		(st.config.EarlyTerminateOnCollision &&
			(m.Collided() || total < st.config.rewardFloor()))
	m.Done = done

	st.prevMeasurement = m
	st.prevAction = action
	st.prevReward = reward
	st.done = st.done || done

	if st.mlog != nil {
		if err := st.mlog.Write(m); err != nil {
			e.log.Warn("measurement log write failed",
				zap.String("agent", string(id)), zap.Error(err))
		}
		if st.done {
			if err := st.mlog.Close(); err != nil {
				e.log.Warn("measurement log close failed",
					zap.String("agent", string(id)), zap.Error(err))
			}
		}
	}

	image, err := e.world.CameraImage(ctx, st.camera)
	if err != nil {
		return nil, 0, false, nil, err
	}
	obs := e.encoder.Encode(image, m, st.config.SendMeasurements)
	e.obs[id] = obs

	if e.envConfig.Verbose {
		e.log.Debug("step",
			zap.String("agent", string(id)),
			zap.Int("step", st.steps),
			zap.Float64("reward", reward),
			zap.Float64("total", total),
			zap.Bool("done", done))
	}
	return obs, reward, st.done, m, nil
}

// readMeasurement builds the full per-step snapshot of one actor from
// the simulator and the planner.
func (e *MultiAgentEnv) readMeasurement(ctx context.Context, st *actorState) (*Measurement, error) {
	t, err := e.world.GetTransform(ctx, st.actor)
	if err != nil {
		return nil, fmt.Errorf("reading transform: %w", err)
	}
	v, err := e.world.Velocity(ctx, st.actor)
	if err != nil {
		return nil, fmt.Errorf("reading velocity: %w", err)
	}

	cur := [3]float64{t.Location.X, t.Location.Y, groundZ}
	curOrient := [3]float64{t.Rotation.Pitch, t.Rotation.Yaw, groundZ}
	goal := [3]float64{st.endPos[0], st.endPos[1], groundZ}
	goalOrient := [3]float64{0, 90, groundZ}

	command := planner.LaneFollow
	if st.config.EnablePlanner {
		command, err = e.planner.NextCommand(cur, curOrient, goal, goalOrient)
		if err != nil {
			return nil, fmt.Errorf("planner command: %w", err)
		}
	}

	distance := -1.0
	switch {
	case command == planner.ReachGoal:
		distance = 0
	case st.config.EnablePlanner:
		d, err := e.planner.ShortestPathDistance(cur, curOrient, goal, goalOrient)
		if err != nil {
			return nil, fmt.Errorf("planner distance: %w", err)
		}
		distance = d / gridUnit
	}

	dx := t.Location.X - st.endPos[0]
	dy := t.Location.Y - st.endPos[1]
	euclidean := math.Sqrt(dx*dx+dy*dy) / gridUnit

	m := &Measurement{
		EpisodeID:               st.episodeID,
		Step:                    st.steps,
		X:                       t.Location.X,
		Y:                       t.Location.Y,
		Pitch:                   t.Rotation.Pitch,
		Yaw:                     t.Rotation.Yaw,
		Roll:                    t.Rotation.Roll,
		ForwardSpeed:            math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z),
		DistanceToGoal:          distance,
		DistanceToGoalEuclidean: euclidean,
		NextCommand:             command,
		Weather:                 e.weather,
		Map:                     e.envConfig.ServerMap,
		StartCoord:              st.startCoord,
		EndCoord:                st.endCoord,
		Scenario:                st.scenario,
		XRes:                    e.envConfig.XRes,
		YRes:                    e.envConfig.YRes,
		MaxSteps:                st.scenario.MaxSteps,
		PreviousAction:          st.prevAction,
		PreviousReward:          st.prevReward,
	}

	if st.collision != "" {
		counts, err := e.world.CollisionCounts(ctx, st.collision)
		if err != nil {
			return nil, fmt.Errorf("reading collision sensor: %w", err)
		}
		m.CollisionVehicles = counts.Vehicles
		m.CollisionPedestrians = counts.Pedestrians
		m.CollisionOther = counts.Other
	}
	if st.lane != "" {
		flags, err := e.world.LaneFlags(ctx, st.lane)
		if err != nil {
			return nil, fmt.Errorf("reading lane sensor: %w", err)
		}
		m.IntersectionOtherlane = flags.OffLane
		m.IntersectionOffroad = flags.OffRoad
	}
	return m, nil
}

func (e *MultiAgentEnv) allDone() bool {
	for _, id := range e.agentIDs {
		if !e.actors[id].done {
			return false
		}
	}
	return true
}

// degradedResult is the step outcome after a mid-step simulator fault:
// last known observations, zero rewards, everything done. The server
// state is dropped so the next Reset relaunches from scratch.
func (e *MultiAgentEnv) degradedResult() *core.StepResult {
	result := &core.StepResult{
		Observations: make(core.ObservationMap, len(e.agentIDs)),
		Rewards:      make(core.RewardMap, len(e.agentIDs)),
		Dones:        make(core.DoneMap, len(e.agentIDs)+1),
		Infos:        make(core.InfoMap, len(e.agentIDs)),
	}
	for _, id := range e.agentIDs {
		result.Observations[id] = e.obs[id]
		result.Rewards[id] = 0
		result.Dones[id] = true
		if st := e.actors[id]; st.prevMeasurement != nil {
			result.Infos[id] = st.prevMeasurement
		}
	}
	result.Dones[core.DoneAll] = true
	e.clearServerState()
	return result
}

// CleanWorld destroys every sensor and vehicle this environment spawned
// plus any leftover vehicles, leaving the server empty.
func (e *MultiAgentEnv) CleanWorld(ctx context.Context) error {
	if e.world == nil {
		return nil
	}
	for _, id := range e.agentIDs {
		st := e.actors[id]
		for _, sensor := range st.sensors() {
			if err := e.world.DetachSensor(ctx, sensor); err != nil {
				return fmt.Errorf("detaching sensor %s: %w", sensor, err)
			}
		}
		if st.actor != "" {
			if err := e.world.DestroyActor(ctx, st.actor); err != nil {
				return fmt.Errorf("destroying actor %s: %w", st.actor, err)
			}
		}
		st.actor, st.camera, st.collision, st.lane = "", "", "", ""
		st.done = true
	}
	if err := e.destroyLeftovers(ctx); err != nil {
		return err
	}
	time.Sleep(e.timings.CleanupSettle)
	return nil
}

// clearServerState is the idempotent teardown: close measurement logs,
// drop the client, kill the server process and invalidate every actor
// handle so the next reset takes the hard path.
func (e *MultiAgentEnv) clearServerState() {
	for _, st := range e.actors {
		if st.mlog != nil {
			_ = st.mlog.Close()
			st.mlog = nil
		}
		st.actor, st.camera, st.collision, st.lane = "", "", "", ""
		st.done = true
	}
	if e.world != nil {
		if closer, ok := e.world.(interface{ Close() }); ok {
			closer.Close()
		}
		e.world = nil
	}
	if e.proc != nil {
		e.launcher.Terminate(e.proc)
		e.proc = nil
	}
	e.didReset = false
}

// Close tears down the simulator. The environment can be Reset again
// afterwards.
func (e *MultiAgentEnv) Close() {
	e.clearServerState()
}

func transformAt(pos [3]float64) sim.Transform {
	return sim.Transform{Location: sim.Vec3{X: pos[0], Y: pos[1], Z: pos[2]}}
}

// coarseCoord maps a world position onto the coarse map grid.
func coarseCoord(pos [3]float64) [2]int {
	return [2]int{
		int(math.Floor(pos[0] / gridUnit)),
		int(math.Floor(pos[1] / gridUnit)),
	}
}
