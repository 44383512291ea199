package targeting

import (
	"errors"
	"fmt"

	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/waypoint"
)

// Mode tracks how the current target was chosen. manualNavigation marks a
// deliberate pick from a map UI and is protected: cycling never clears it.
type Mode string

const (
	ModeNone      Mode = "none"
	ModeCycling   Mode = "cycling"
	ModeManualNav Mode = "manualNavigation"
)

// ComputerStatus models the targeting computer hardware state. Every
// non-operational state blocks selection with its own user-visible message.
type ComputerStatus string

const (
	ComputerOperational  ComputerStatus = "operational"
	ComputerDisabled     ComputerStatus = "disabled"
	ComputerNotInstalled ComputerStatus = "not_installed"
	ComputerDamaged      ComputerStatus = "damaged"
	ComputerUnpowered    ComputerStatus = "unpowered"
)

var (
	ErrTargetNotFound = errors.New("target not found")
	ErrNoWaypoints    = errors.New("no active waypoints")
)

// WarmupError rejects selection during the post-launch targeting warmup.
type WarmupError struct {
	RemainingTicks uint64
	TickRateHz     int
}

func (e *WarmupError) Error() string {
	return fmt.Sprintf("targeting warmup: %d ticks remaining", e.RemainingTicks)
}

// HUD returns the user-visible warmup message.
func (e *WarmupError) HUD() string {
	rate := e.TickRateHz
	if rate <= 0 {
		rate = 1
	}
	secs := (e.RemainingTicks + uint64(rate) - 1) / uint64(rate)
	return fmt.Sprintf("TARGETING SYSTEMS WARMING UP — %ds", secs)
}

// ComputerError rejects selection while the targeting computer is down.
type ComputerError struct {
	Status ComputerStatus
}

func (e *ComputerError) Error() string {
	return fmt.Sprintf("target computer %s", e.Status)
}

func (e *ComputerError) HUD() string {
	switch e.Status {
	case ComputerNotInstalled:
		return "NO TARGETING COMPUTER — Not installed"
	case ComputerDamaged:
		return "TARGETING COMPUTER DAMAGED — Repair required"
	case ComputerUnpowered:
		return "TARGETING COMPUTER UNPOWERED — Insufficient energy"
	default:
		return "TARGETING COMPUTER OFFLINE"
	}
}

// HUDMessage maps a controller error to its HUD string, or "" when the
// error has no user-visible form.
func HUDMessage(err error) string {
	var we *WarmupError
	if errors.As(err, &we) {
		return we.HUD()
	}
	var ce *ComputerError
	if errors.As(err, &ce) {
		return ce.HUD()
	}
	if errors.Is(err, ErrNoWaypoints) {
		return "NO WAYPOINTS — No active waypoints available"
	}
	if errors.Is(err, ErrTargetNotFound) {
		return "TARGET NOT FOUND"
	}
	return ""
}

// State is the persistable controller state (session.v1, ephemeral fields
// excluded).
type State struct {
	CurrentTargetID       string         `json:"current_target_id,omitempty"`
	Mode                  Mode           `json:"mode"`
	InterruptedWaypointID string         `json:"interrupted_waypoint_id,omitempty"`
	RangeMonitorActive    bool           `json:"range_monitor_active,omitempty"`
	Computer              ComputerStatus `json:"computer"`
}

// Controller is the single source of truth for the current target. It owns
// the selection index, the mode flags, and the single-slot waypoint
// interruption stack. All methods run on the sim loop goroutine.
type Controller struct {
	list *List
	wps  *waypoint.Store

	idx                int
	mode               Mode
	interruptedID      string
	rangeMonitorActive bool
	computer           ComputerStatus

	warmupUntilTick uint64
	tickRateHz      int
	nowTick         func() uint64

	playerPos func() galaxy.Vec3
	emit      func(protocol.Event)
}

func NewController(list *List, wps *waypoint.Store) *Controller {
	return &Controller{
		list:     list,
		wps:      wps,
		idx:      -1,
		mode:     ModeNone,
		computer: ComputerOperational,
		nowTick:  func() uint64 { return 0 },
	}
}

// SetClock wires the tick source used by the warmup admission check.
func (c *Controller) SetClock(nowTick func() uint64, tickRateHz int) {
	c.nowTick = nowTick
	c.tickRateHz = tickRateHz
}

// SetWarmupUntil blocks all select/cycle operations until the given tick.
func (c *Controller) SetWarmupUntil(tick uint64) { c.warmupUntilTick = tick }

// SetPlayerPosFn wires the live player transform, used when injecting
// waypoint entries into the list.
func (c *Controller) SetPlayerPosFn(fn func() galaxy.Vec3) { c.playerPos = fn }

// SetEmit wires the event sink. Controller publishes; it holds no
// back-pointer to any observer.
func (c *Controller) SetEmit(fn func(protocol.Event)) { c.emit = fn }

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) RangeMonitorActive() bool      { return c.rangeMonitorActive }
func (c *Controller) SetRangeMonitorActive(on bool) { c.rangeMonitorActive = on }

func (c *Controller) Computer() ComputerStatus { return c.computer }

// SetComputerStatus changes the hardware state. Any non-operational state
// drops the selection and releases the manual-navigation flag.
func (c *Controller) SetComputerStatus(st ComputerStatus) {
	c.computer = st
	if st != ComputerOperational {
		c.ClearCurrentTarget()
		c.mode = ModeNone
	}
}

// Current returns the selected entry, or nil. The pointer is valid until
// the next list rebuild.
func (c *Controller) Current() *Entry { return c.list.At(c.idx) }

func (c *Controller) CurrentIndex() int { return c.idx }

func (c *Controller) CurrentID() string {
	if e := c.Current(); e != nil {
		return e.ID
	}
	return ""
}

// InterruptedWaypointID exposes the single-slot interruption stack.
func (c *Controller) InterruptedWaypointID() string { return c.interruptedID }

// admit is the gate every select/cycle operation passes through.
func (c *Controller) admit() error {
	if c.computer != ComputerOperational {
		return &ComputerError{Status: c.computer}
	}
	if now := c.nowTick(); now < c.warmupUntilTick {
		return &WarmupError{RemainingTicks: c.warmupUntilTick - now, TickRateHz: c.tickRateHz}
	}
	return nil
}

// applyIndex commits a selection change: interruption push, index move and
// the targetChanged event happen together, never partially.
func (c *Controller) applyIndex(i int) {
	var oldCopy *Entry
	if old := c.Current(); old != nil {
		cp := *old
		oldCopy = &cp
	}

	if oldCopy != nil && oldCopy.IsWaypoint {
		next := c.list.At(i)
		if next != nil && !next.IsWaypoint && galaxy.NormalizeID(next.ID) != galaxy.NormalizeID(oldCopy.ID) {
			c.interruptedID = oldCopy.ID
			if err := c.wps.Interrupt(oldCopy.ID); err == nil {
				c.emitEvent(protocol.Event{
					"type":        protocol.EvWaypointInterrupted,
					"waypoint_id": oldCopy.ID,
					"name":        oldCopy.Name,
				})
			}
		}
	}

	c.idx = i
	c.emitTargetChanged(oldCopy, c.Current())
}

// CycleNext advances to the next entry in cycle order. An empty list clears
// the selection without error. Cycling sets mode=cycling but never clears
// manual navigation.
func (c *Controller) CycleNext() error {
	if err := c.admit(); err != nil {
		return err
	}
	if c.list.Len() == 0 {
		c.ClearCurrentTarget()
		return nil
	}
	next := 0
	if c.idx >= 0 {
		next = (c.idx + 1) % c.list.Len()
	}
	c.applyIndex(next)
	if c.mode != ModeManualNav {
		c.mode = ModeCycling
	}
	return nil
}

// SelectFromCatalog selects a specific entry (Star Charts / Long Range
// Scanner path) and enters manual-navigation mode.
func (c *Controller) SelectFromCatalog(id string) error {
	if err := c.admit(); err != nil {
		return err
	}
	i := c.list.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, id)
	}
	c.applyIndex(i)
	c.mode = ModeManualNav
	return nil
}

// SelectWaypointByCycle selects a waypoint, injecting it into the list if
// the last rebuild predates its creation.
func (c *Controller) SelectWaypointByCycle(waypointID string) error {
	if err := c.admit(); err != nil {
		return err
	}
	wp := c.wps.Get(waypointID)
	if wp == nil || (wp.Status != waypoint.StatusActive && wp.Status != waypoint.StatusInterrupted) {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, waypointID)
	}
	i := c.list.IndexOf(waypointID)
	if i < 0 {
		c.list.Append(entryFromWaypoint(wp, c.playerPosition()))
		i = c.list.Len() - 1
	}
	c.applyIndex(i)
	return nil
}

// SetTarget is the raw setter. The entry must already be in the list
// (waypoints are injected when missing). If the current target is a
// waypoint and the new one is not, the waypoint lands in the interruption
// slot with status interrupted.
func (c *Controller) SetTarget(e Entry) error {
	if err := c.admit(); err != nil {
		return err
	}
	if e.IsWaypoint {
		return c.SelectWaypointByCycle(e.ID)
	}
	i := c.list.IndexOf(e.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, e.ID)
	}
	c.applyIndex(i)
	return nil
}

// ResumeInterruptedWaypoint re-selects the waypoint in the interruption
// slot, returning it to active. Reports false when the slot is empty or the
// waypoint is gone.
func (c *Controller) ResumeInterruptedWaypoint() (bool, error) {
	if err := c.admit(); err != nil {
		return false, err
	}
	id := c.interruptedID
	if id == "" {
		return false, nil
	}
	wp := c.wps.Get(id)
	if wp == nil || wp.Status != waypoint.StatusInterrupted {
		c.interruptedID = ""
		return false, nil
	}
	if err := c.wps.Resume(id); err != nil {
		return false, err
	}
	if err := c.SelectWaypointByCycle(id); err != nil {
		return false, err
	}
	c.interruptedID = ""
	c.emitEvent(protocol.Event{
		"type":        protocol.EvWaypointResumed,
		"waypoint_id": id,
		"name":        wp.Name,
	})
	return true, nil
}

// ClearCurrentTarget drops the selection. The interruption slot survives.
func (c *Controller) ClearCurrentTarget() {
	if c.idx < 0 {
		return
	}
	old := *c.Current()
	c.idx = -1
	c.emitTargetChanged(&old, nil)
}

// CloseNavigationUI releases the manual-navigation protection.
func (c *Controller) CloseNavigationUI() {
	if c.mode == ModeManualNav {
		c.mode = ModeNone
	}
}

// OnTargetDestroyed reconciles the list after a destruction event. The
// post-state (list without the entry, next selection) is computed before
// anything is committed, so weapons, wireframe and HUD observers always see
// the swap as one change.
func (c *Controller) OnTargetDestroyed(id string) {
	i := c.list.IndexOf(id)
	if i < 0 {
		return
	}
	wasCurrent := i == c.idx

	if !wasCurrent {
		c.list.Remove(i)
		if i < c.idx {
			c.idx--
		}
		return
	}

	old := *c.list.At(i)
	c.list.Remove(i)
	c.emitEvent(protocol.Event{
		"type":      protocol.EvTargetDestroyed,
		"target_id": old.ID,
		"name":      old.Name,
	})
	if c.list.Len() == 0 {
		c.idx = -1
		c.emitTargetChanged(&old, nil)
		return
	}
	c.idx = i % c.list.Len()
	c.emitTargetChanged(&old, c.Current())
}

// OnSectorChanged clears the selection and the interruption slot. An
// interrupted waypoint goes back to active so the new sector's rebuild
// still lists it; the mission engine may re-assert the interruption.
func (c *Controller) OnSectorChanged(newSectorID string) {
	if c.interruptedID != "" {
		if wp := c.wps.Get(c.interruptedID); wp != nil && wp.Status == waypoint.StatusInterrupted {
			_ = c.wps.Resume(c.interruptedID)
		}
		c.interruptedID = ""
	}
	var oldCopy *Entry
	if old := c.Current(); old != nil {
		cp := *old
		oldCopy = &cp
	}
	c.idx = -1
	c.mode = ModeNone
	if oldCopy != nil {
		c.emitTargetChanged(oldCopy, nil)
	}
}

// Restore re-locates a selection by id after a list rebuild. A vanished
// selection becomes a cleared one.
func (c *Controller) Restore(id string) {
	if id == "" {
		c.idx = -1
		return
	}
	c.idx = c.list.IndexOf(id)
}

// ExportState captures the persistable controller state.
func (c *Controller) ExportState() State {
	return State{
		CurrentTargetID:       c.CurrentID(),
		Mode:                  c.mode,
		InterruptedWaypointID: c.interruptedID,
		RangeMonitorActive:    c.rangeMonitorActive,
		Computer:              c.computer,
	}
}

// ImportState restores persisted state. The selection index is re-derived
// from the list; call after the list has been rebuilt.
func (c *Controller) ImportState(st State) {
	c.mode = st.Mode
	if c.mode == "" {
		c.mode = ModeNone
	}
	c.interruptedID = st.InterruptedWaypointID
	c.rangeMonitorActive = st.RangeMonitorActive
	c.computer = st.Computer
	if c.computer == "" {
		c.computer = ComputerOperational
	}
	c.Restore(st.CurrentTargetID)
}

func (c *Controller) playerPosition() galaxy.Vec3 {
	if c.playerPos != nil {
		return c.playerPos()
	}
	return galaxy.Vec3{}
}

func (c *Controller) emitEvent(e protocol.Event) {
	if c.emit != nil {
		c.emit(e)
	}
}

func (c *Controller) emitTargetChanged(old, next *Entry) {
	e := protocol.Event{"type": protocol.EvTargetChanged}
	if old != nil {
		e["old_id"] = old.ID
	}
	if next != nil {
		e["new_id"] = next.ID
		e["new_name"] = next.Name
	}
	c.emitEvent(e)
}
