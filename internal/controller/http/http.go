package http

import (
	"errors"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/manager"
	"fob_apiserver/internal/sensor"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strconv"
)

type server struct {
	manager manager.Manager
}

// FrameResponse carries a frame both raw and in physical units.
type FrameResponse struct {
	ID         string         `json:"id"`
	Seq        uint64         `json:"seq"`
	SysTicks   int64          `json:"sys_ticks"`
	DeviceTime uint32         `json:"device_time"`
	Format     string         `json:"format"`
	Scale      float64        `json:"scale"`
	Raw        []int16        `json:"raw"`
	Position   *[3]float64    `json:"position,omitempty"`
	Angles     *[3]float64    `json:"angles,omitempty"`
	Quaternion *[4]float64    `json:"quaternion,omitempty"`
	Matrix     *[3][3]float64 `json:"matrix,omitempty"`
}

type FramesResponse struct {
	Cursor int64           `json:"cursor"`
	Frames []FrameResponse `json:"frames"`
}

type StreamingRequest struct {
	Status *bool `json:"status" binding:"required"`
}

type FormatRequest struct {
	Format *int `json:"format" binding:"required"`
}

type FormatResponse struct {
	Format int    `json:"format"`
	Name   string `json:"name"`
}

// NewFrameResponse converts a wrapped frame, leaving out the fields its data
// format does not carry.
func NewFrameResponse(f *sensor.FrameWrapped) FrameResponse {
	raw := make([]int16, bird.NumValues)
	f.Flatten(raw)
	res := FrameResponse{
		ID:         f.ID,
		Seq:        f.Seq,
		SysTicks:   f.SysTicks,
		DeviceTime: f.DeviceTime,
		Format:     f.Format.String(),
		Scale:      f.Scale,
		Raw:        raw,
	}
	if f.Format.HasPosition() {
		p := f.Position()
		res.Position = &p
	}
	if f.Format.HasAngles() {
		a := f.AnglesDegrees()
		res.Angles = &a
	}
	if f.Format.HasQuaternion() {
		q := f.ScaledQuaternion()
		res.Quaternion = &q
	}
	if f.Format.HasMatrix() {
		m := f.ScaledMatrix()
		res.Matrix = &m
	}
	return res
}

func errorStatus(err error) int {
	var devErr *bird.DeviceError
	switch {
	case errors.As(err, &devErr):
		return http.StatusBadGateway
	case errors.Is(err, manager.ErrNotRunning), errors.Is(err, manager.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, manager.ErrNoNewData):
		return http.StatusNoContent
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	code := errorStatus(err)
	if code == http.StatusNoContent {
		c.Status(code)
		return
	}
	c.JSON(code, gin.H{"err": err.Error()})
}

func (s *server) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.Status())
}

func (s *server) GetFrame(c *gin.Context) {
	if s.manager.Faulted() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "tracker is faulted"})
		return
	}
	_, frames, err := s.manager.Read(-1)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, NewFrameResponse(frames[0]))
}

func (s *server) GetFrames(c *gin.Context) {
	cursor, err := strconv.ParseInt(c.DefaultQuery("cursor", "-1"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid cursor"})
		return
	}
	cursor, frames, err := s.manager.Read(cursor)
	if err != nil {
		abort(c, err)
		return
	}
	resp := FramesResponse{Cursor: cursor, Frames: make([]FrameResponse, len(frames))}
	for i, f := range frames {
		resp.Frames[i] = NewFrameResponse(f)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) SetStreaming(c *gin.Context) {
	var req StreamingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	log.Infof("SetStreaming: %v", *req.Status)
	if err := s.manager.SetStreaming(*req.Status); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, s.manager.Status())
}

func (s *server) GetFormat(c *gin.Context) {
	f, err := s.manager.DataFormat()
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, FormatResponse{Format: int(f), Name: f.String()})
}

func (s *server) SetFormat(c *gin.Context) {
	var req FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if *req.Format < 0 || *req.Format > 255 || !bird.DataFormat(*req.Format).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid data format"})
		return
	}
	f := bird.DataFormat(*req.Format)
	log.Infof("SetFormat: %v", f)
	if err := s.manager.SetDataFormat(f); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, FormatResponse{Format: int(f), Name: f.String()})
}

func (s *server) ListDev(c *gin.Context) {
	ids, err := s.manager.ListDev()
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

func (s *server) control(action func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := action(); err != nil {
			c.JSON(errorStatus(err), gin.H{"err": err.Error(), "status": s.manager.Status()})
			return
		}
		c.JSON(http.StatusOK, s.manager.Status())
	}
}

// NewRouter installs the tracker API on a gin engine.
func NewRouter(m manager.Manager) *gin.Engine {
	s := &server{manager: m}
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/v1")
	v1.GET("/status", s.GetStatus)
	v1.GET("/frame", s.GetFrame)
	v1.GET("/frames", s.GetFrames)
	v1.POST("/streaming", s.SetStreaming)
	v1.GET("/format", s.GetFormat)
	v1.PUT("/format", s.SetFormat)
	v1.GET("/devices", s.ListDev)
	v1.POST("/start", s.control(m.Start))
	v1.POST("/stop", s.control(m.Stop))
	v1.POST("/restart", s.control(m.Restart))
	return router
}
