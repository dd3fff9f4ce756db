// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package curtains

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/config"
	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
	"github.com/tomtom215/curtains/internal/rooms"
	"github.com/tomtom215/curtains/internal/stats"
)

// StatsRecorder counts successful commands.
type StatsRecorder interface {
	Update(ctx context.Context, room string, action stats.Action) error
}

// RoomRecorder remembers which rooms a user controlled.
type RoomRecorder interface {
	AddRoom(ctx context.Context, user, room string) error
}

// CommandLog keeps an audit line per successful command.
type CommandLog interface {
	Append(room, clientIP string, action stats.Action) error
}

// Command is one control request.
type Command struct {
	Room      string
	Action    string
	Direction string
	User      string // empty when the caller is not identified
	ClientIP  string
}

// Result is returned to the caller on success.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Controller turns commands into controller requests and records them.
type Controller struct {
	rooms   *rooms.Directory
	gateway Gateway
	cfg     config.CurtainsConfig
	stats   StatsRecorder
	users   RoomRecorder
	log     CommandLog
}

// NewController wires the collaborators. users and log may be nil.
func NewController(dir *rooms.Directory, gw Gateway, cfg config.CurtainsConfig, st StatsRecorder, users RoomRecorder, log CommandLog) *Controller {
	return &Controller{rooms: dir, gateway: gw, cfg: cfg, stats: st, users: users, log: log}
}

// Building extracts the building suffix, the second character of a room.
func Building(room string) string {
	if len(room) < 2 {
		return ""
	}
	return room[1:2]
}

// groupAndValue maps an action onto the direction's group codes.
func groupAndValue(action stats.Action, dir rooms.Direction) (group, value string) {
	switch action {
	case stats.ActionUp:
		return string(dir.Start), "0"
	case stats.ActionDown:
		return string(dir.Start), "1"
	default:
		return string(dir.Stop), ""
	}
}

// Request builds the controller request for cmd without sending it.
func (c *Controller) Request(cmd Command) (Request, stats.Action, error) {
	room := strings.ToUpper(cmd.Room)
	if _, err := c.rooms.Directions(room); err != nil {
		return Request{}, "", apperr.NotFound("Room not found")
	}

	building := Building(room)
	port := c.cfg.Port(building)
	if port == "" {
		return Request{}, "", apperr.NotFound("incorrect building %s", building)
	}

	dir, err := c.rooms.Resolve(room, cmd.Direction)
	if err != nil {
		return Request{}, "", apperr.NotFound("Room not found")
	}

	action, err := stats.ParseAction(strings.ToLower(cmd.Action))
	if err != nil {
		return Request{}, "", apperr.BadRequest("Invalid action. Choose 'up', 'down', or 'stop'.")
	}

	group, value := groupAndValue(action, dir)
	return Request{
		Host:     c.cfg.ServerIP,
		Port:     port,
		Username: c.cfg.Username + building,
		Password: c.cfg.Password,
		MD5:      c.cfg.MD5Value,
		Group:    group,
		Value:    value,
	}, action, nil
}

// Control sends cmd and records it on success.
func (c *Controller) Control(ctx context.Context, cmd Command) (Result, error) {
	req, action, err := c.Request(cmd)
	if err != nil {
		return Result{}, err
	}
	room := strings.ToUpper(cmd.Room)
	building := Building(room)
	log := logging.Ctx(ctx).With().
		Str("room", room).
		Str("action", string(action)).
		Str("group", req.Group).
		Logger()

	start := time.Now()
	resp, err := c.gateway.Send(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordCurtainCommand(building, string(action), "error", elapsed)
		log.Error().Err(err).Msg("Curtain command failed")
		if errors.Is(err, ErrCircuitOpen) {
			return Result{}, apperr.Upstream(0, "Curtain controller temporarily unavailable", err)
		}
		return Result{}, apperr.Upstream(0, fmt.Sprintf("Failed to send command: %v", err), err)
	}
	if !resp.Accepted() {
		metrics.RecordCurtainCommand(building, string(action), "rejected", elapsed)
		log.Warn().Int("status", resp.StatusCode).Msg("Controller rejected curtain command")
		return Result{}, apperr.Upstream(resp.StatusCode, "Failed to send command "+resp.Body, nil)
	}
	metrics.RecordCurtainCommand(building, string(action), "success", elapsed)

	// The command already reached the controller; bookkeeping failures are
	// logged rather than reported.
	if err := c.stats.Update(ctx, room, action); err != nil {
		log.Error().Err(err).Msg("Failed to update statistics")
	}
	if c.users != nil && cmd.User != "" {
		if err := c.users.AddRoom(ctx, cmd.User, room); err != nil {
			log.Error().Err(err).Str("username", cmd.User).Msg("Failed to record room for user")
		}
	}
	if c.log != nil {
		if err := c.log.Append(room, cmd.ClientIP, action); err != nil {
			log.Error().Err(err).Msg("Failed to append control log")
		}
	}

	log.Info().Dur("duration", elapsed).Msg("Curtain command sent")
	return Result{
		Status:  "success",
		Message: fmt.Sprintf("Curtain in room %s %s command sent successfully.", room, action),
	}, nil
}
