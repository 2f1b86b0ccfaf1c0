package carla

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/sim"
)

// ManualBridge accepts vehicle controls from an external input process
// (a keyboard or wheel shim) and hands the latest one per actor to the
// environment when that actor runs in manual mode.
type ManualBridge struct {
	port   int
	server *http.Server

	lock   *sync.Mutex
	latest map[core.AgentID]sim.VehicleControl
}

func NewManualBridge(port int) *ManualBridge {
	bridge := &ManualBridge{
		port:   port,
		lock:   new(sync.Mutex),
		latest: make(map[core.AgentID]sim.VehicleControl),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	router.POST("/control/:actor", bridge.handleControl)

	bridge.server = &http.Server{
		Addr:    fmt.Sprintf("localhost:%d", port),
		Handler: router,
	}
	return bridge
}

func (b *ManualBridge) Port() int {
	return b.port
}

func (b *ManualBridge) handleControl(c *gin.Context) {
	control := sim.VehicleControl{}
	if err := c.ShouldBindJSON(&control); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := core.AgentID(c.Param("actor"))

	b.lock.Lock()
	b.latest[actor] = control
	b.lock.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// Latest returns the most recent control posted for the actor, if any.
func (b *ManualBridge) Latest(actor core.AgentID) (sim.VehicleControl, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	control, ok := b.latest[actor]
	return control, ok
}

// Start serves the bridge until ctx is cancelled.
func (b *ManualBridge) Start(ctx context.Context) {
	go func() {
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Errorf("manual bridge: %w", err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = b.server.Shutdown(shutdownCtx)
	}()
}
