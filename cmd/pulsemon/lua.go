package main

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/pulse/handler"
)

// luaSink feeds events to a user Lua script on the background context,
// so a slow script never blocks posting or the UI. The script defines
//
//	function on_event(kind, detail) ... end
//
// One Lua state serves all calls; background delivery is strictly
// serial, so no locking is needed.
type luaSink struct {
	state *lua.LState
}

func newLuaSink(path string) (*luaSink, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	state := lua.NewState()
	if err := state.DoString(string(src)); err != nil {
		state.Close()
		return nil, fmt.Errorf("load script: %w", err)
	}
	return &luaSink{state: state}, nil
}

func (s *luaSink) Close() {
	s.state.Close()
}

func (s *luaSink) OnFileChanged(ctx context.Context, e FileChanged) error {
	return s.call("file", e.Op+" "+e.Path)
}

func (s *luaSink) OnTick(ctx context.Context, e Tick) error {
	return s.call("tick", fmt.Sprintf("%d", e.Seq))
}

func (s *luaSink) EventSpecs() []handler.Spec {
	return []handler.Spec{
		handler.On("OnFileChanged", (*luaSink).OnFileChanged, handler.WithContext(handler.Background)),
		handler.On("OnTick", (*luaSink).OnTick, handler.WithContext(handler.Background)),
	}
}

func (s *luaSink) call(kind, detail string) error {
	fn := s.state.GetGlobal("on_event")
	if fn == lua.LNil {
		return nil
	}
	return s.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LString(kind), lua.LString(detail))
}
