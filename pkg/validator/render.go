package validator

import (
	"fmt"

	"github.com/platinummonkey/auval/pkg/component"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/observability"
)

const (
	renderFrames     = 2048
	renderSampleRate = 44100

	// the scheduled event and the second render cover a quarter buffer
	scheduleWindow = renderFrames / 4
	scheduleOffset = scheduleWindow / 2
)

// Allocator provides the output buffers of the scheduling probe. Every
// buffer returned by Alloc is passed to Free exactly once.
type Allocator interface {
	Alloc(frames int) []float32
	Free(buf []float32)
}

// HeapAllocator allocates buffers on the Go heap
type HeapAllocator struct{}

func (HeapAllocator) Alloc(frames int) []float32 { return make([]float32, frames) }
func (HeapAllocator) Free([]float32)             {}

// zeroFill stands in as the input signal of effects
func zeroFill(_ *native.RenderFlags, _ native.TimeStamp, _ uint32, _ uint32, buffers *native.BufferList) native.Code {
	if buffers == nil {
		return native.NoErr
	}
	for i := range buffers.Buffers {
		clear(buffers.Buffers[i].Data)
	}
	return native.NoErr
}

// dummyHostCallbacks report a playing transport at 120 BPM in 4/4. Some
// components hang when rendered without host callbacks.
func dummyHostCallbacks() *native.HostCallbacks {
	return &native.HostCallbacks{
		BeatAndTempo: func() (float64, float64, native.Code) {
			return 0, 120, native.NoErr
		},
		MusicalTimeLocation: func() (native.MusicalTime, native.Code) {
			return native.MusicalTime{TimeSigNumerator: 4, TimeSigDenominator: 4}, native.NoErr
		},
		TransportState: func() (native.TransportState, native.Code) {
			return native.TransportState{IsPlaying: true}, native.NoErr
		},
	}
}

// testFormat is 32-bit float non-interleaved PCM at the probe sample rate
func testFormat(channels uint32) native.StreamFormat {
	return native.StreamFormat{
		SampleRate:       renderSampleRate,
		FormatID:         native.FormatLinearPCM,
		FormatFlags:      native.FormatFlagsNativeFloatPacked | native.FormatFlagIsNonInterleaved,
		BytesPerPacket:   4,
		FramesPerPacket:  1,
		BytesPerFrame:    4,
		ChannelsPerFrame: channels,
		BitsPerChannel:   32,
	}
}

type renderSession struct {
	rc             *RunContext
	h              *component.Handle
	wasInitialized bool
	callback       bool
	buffers        [][]float32
	list           *native.BufferList
}

// testSchedulingAbility renders two buffers around a scheduled parameter
// event. Failures while rendering are logged and do not fail the probe;
// the component is always returned to its prior initialization state.
func testSchedulingAbility(rc *RunContext) (err error) {
	h := rc.Handle
	ids, err := h.GlobalParameterList()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		rc.Notef("no global parameters to schedule")
		return nil
	}

	// Step 1: tear down initialization
	s := &renderSession{rc: rc, h: h, wasInitialized: h.IsInitialized()}
	if s.wasInitialized {
		if err := h.Uninitialize(); err != nil {
			return err
		}
	}
	defer func() {
		if cerr := s.cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	// Step 2-3: negotiate formats and install the zero-filling input
	outChannels, err := s.configure()
	if err != nil {
		return err
	}

	// Step 4-5: initialize with host callbacks
	if err := h.Initialize(); err != nil {
		return err
	}
	h.SetHostCallbacks(dummyHostCallbacks())

	s.allocate(outChannels)

	// Step 6-8: render, schedule, render again
	s.exercise(ids)
	return nil
}

func (s *renderSession) configure() (uint32, error) {
	var inChannels uint32
	if !s.h.IsGenerator() {
		in, err := s.h.StreamFormat(native.ScopeInput, 0)
		if err != nil {
			return 0, err
		}
		inChannels = in.ChannelsPerFrame
	}

	out, err := s.h.StreamFormat(native.ScopeOutput, 0)
	if err != nil {
		return 0, err
	}
	outChannels := out.ChannelsPerFrame
	if err := s.h.SetStreamFormat(native.ScopeOutput, 0, testFormat(outChannels)); err != nil {
		return 0, fmt.Errorf("failed to set output format: %w", err)
	}

	if !s.h.IsGenerator() {
		if err := s.h.SetStreamFormat(native.ScopeInput, 0, testFormat(inChannels)); err != nil {
			return 0, fmt.Errorf("failed to set input format: %w", err)
		}
		if err := s.h.SetRenderCallback(0, zeroFill); err != nil {
			return 0, err
		}
		s.callback = true
	}

	if err := s.h.SetMaxFramesPerSlice(renderFrames); err != nil {
		return 0, err
	}
	return outChannels, nil
}

func (s *renderSession) allocate(channels uint32) {
	alloc := s.rc.Allocator
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	s.list = &native.BufferList{Buffers: make([]native.Buffer, channels)}
	for i := range s.list.Buffers {
		buf := alloc.Alloc(renderFrames)
		s.buffers = append(s.buffers, buf)
		s.list.Buffers[i] = native.Buffer{Channels: 1, Data: buf}
	}
}

// exercise runs the render steps. Errors and panics end the steps early
// without failing the probe.
func (s *renderSession) exercise(ids []native.ParameterID) {
	defer func() {
		if perr := observability.MustRecover(recover()); perr != nil {
			s.rc.Log.WithError(perr).Warn("Render probe step panicked")
			s.rc.Notef("render steps could not be validated: %v", perr)
		}
	}()

	flags := native.RenderFlags(0)
	ts := native.TimeStamp{SampleTime: 0, Flags: native.TimeStampSampleTimeValid}
	if err := s.h.Render(&flags, ts, 0, renderFrames, s.list); err != nil {
		s.swallow(err)
		return
	}

	for i := range s.list.Buffers {
		s.list.Buffers[i].Data = s.buffers[i][:scheduleWindow]
	}

	if ev, ok := s.scheduleEvent(ids); ok {
		if err := s.h.ScheduleParameters([]native.ParameterEvent{ev}); err != nil {
			s.swallow(err)
			return
		}
	}

	flags = 0
	ts.SampleTime = renderFrames
	if err := s.h.Render(&flags, ts, 0, scheduleWindow, s.list); err != nil {
		s.swallow(err)
	}
}

func (s *renderSession) swallow(err error) {
	s.rc.Log.WithError(err).Warn("Render probe step failed")
	s.rc.Notef("render steps could not be validated: %v", err)
}

// scheduleEvent picks the first ramp-capable parameter, or else the first
// parameter, and builds an event for it
func (s *renderSession) scheduleEvent(ids []native.ParameterID) (native.ParameterEvent, bool) {
	var (
		chosen native.ParameterID
		info   native.ParameterInfo
		found  bool
	)
	for _, id := range ids {
		pi, ok, err := s.h.ParameterInfo(native.ScopeGlobal, id)
		if err != nil {
			break
		}
		if !ok {
			continue
		}
		if pi.CanRamp() {
			chosen, info, found = id, pi, true
			break
		}
		if !found {
			chosen, info, found = id, pi, true
		}
	}
	if !found {
		return native.ParameterEvent{}, false
	}

	if info.CanRamp() {
		s.rc.Notef("scheduled a ramp on parameter %d", chosen)
		return native.NewRampedEvent(native.ScopeGlobal, 0, chosen, info.MinValue, info.MaxValue, scheduleOffset, scheduleWindow), true
	}
	s.rc.Notef("scheduled an immediate change on parameter %d", chosen)
	return native.NewImmediateEvent(native.ScopeGlobal, 0, chosen, info.MinValue, scheduleOffset), true
}

// cleanup frees the buffers, removes the callbacks and restores the prior
// initialization state. Only the restore can fail.
func (s *renderSession) cleanup() error {
	alloc := s.rc.Allocator
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	for _, buf := range s.buffers {
		alloc.Free(buf)
	}
	s.buffers = nil
	s.list = nil

	s.h.ClearHostCallbacks()
	if s.h.IsInitialized() {
		if err := s.h.Uninitialize(); err != nil {
			s.rc.Log.WithError(err).Warn("Uninitialize failed during render cleanup")
		}
	}
	if s.callback {
		s.h.RemoveRenderCallback(0)
	}
	if s.wasInitialized {
		if err := s.h.Initialize(); err != nil {
			return fmt.Errorf("failed to restore initialization: %w", err)
		}
	}
	return nil
}
