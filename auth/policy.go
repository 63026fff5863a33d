package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andrebq/connectia/internal/luaenv"
	lua "github.com/yuin/gopher-lua"
)

type (
	// AdminPolicy decides if an identity has admin rights. Admin status is
	// not stored with the user, it is derived by the surrounding system.
	AdminPolicy interface {
		IsAdmin(ctx context.Context, id Identity) (bool, error)
	}

	StaticAdmins struct {
		names map[string]struct{}
	}

	// LuaPolicy calls a global is_admin(user) function defined by a script,
	// user is a table with id and username fields.
	LuaPolicy struct {
		mu sync.Mutex
		l  *lua.LState
		fn lua.LValue
	}

	AnyOf []AdminPolicy
)

const luaPolicyFunc = "is_admin"

var (
	errNoAdminFunc = errors.New("admin policy script must define a global is_admin(user) function")
)

func NewStaticAdmins(usernames ...string) *StaticAdmins {
	s := &StaticAdmins{names: make(map[string]struct{}, len(usernames))}
	for _, n := range usernames {
		s.names[n] = struct{}{}
	}
	return s
}

func (s *StaticAdmins) IsAdmin(_ context.Context, id Identity) (bool, error) {
	_, ok := s.names[id.Username]
	return ok, nil
}

// LoadLuaPolicy runs the script at path and keeps its is_admin function
func LoadLuaPolicy(path string) (*LuaPolicy, error) {
	L := luaenv.New()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("unable to load admin policy %v, cause %w", path, err)
	}
	return newLuaPolicy(L)
}

// LuaPolicyFromString is LoadLuaPolicy for inline code
func LuaPolicyFromString(code string) (*LuaPolicy, error) {
	L := luaenv.New()
	if err := L.DoString(code); err != nil {
		L.Close()
		return nil, fmt.Errorf("unable to load admin policy, cause %w", err)
	}
	return newLuaPolicy(L)
}

func newLuaPolicy(L *lua.LState) (*LuaPolicy, error) {
	fn := L.GetGlobal(luaPolicyFunc)
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, errNoAdminFunc
	}
	return &LuaPolicy{l: L, fn: fn}, nil
}

func (p *LuaPolicy) IsAdmin(ctx context.Context, id Identity) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	L := p.l
	L.SetContext(ctx)
	defer L.RemoveContext()
	user := L.NewTable()
	L.SetField(user, "id", lua.LNumber(id.ID))
	L.SetField(user, "username", lua.LString(id.Username))
	err := L.CallByParam(lua.P{
		Fn:      p.fn,
		NRet:    1,
		Protect: true,
	}, user)
	if err != nil {
		return false, fmt.Errorf("admin policy failed for user %v, cause %w", id.ID, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

func (p *LuaPolicy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.l.Close()
}

// IsAdmin returns true as soon as one of the policies does
func (a AnyOf) IsAdmin(ctx context.Context, id Identity) (bool, error) {
	for _, p := range a {
		if p == nil {
			continue
		}
		ok, err := p.IsAdmin(ctx, id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
