// Package testutil holds deterministic stand-ins for the session loop and the
// object search service.
package testutil

import (
	"context"
	"sync"

	"github.com/objmap/mapcore/internal/radar"
	"github.com/objmap/mapcore/pkg/core"
)

// Loop is a dispatcher.Scheduler driven by the test. Posted functions queue
// until Flush; functions passed to Go are held until the test runs them, so
// completion order of background work is under test control.
type Loop struct {
	mu      sync.Mutex
	posted  []func()
	pending []func()
}

// Post queues fn.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.posted = append(l.posted, fn)
}

// Go holds fn until RunGo or Drain.
func (l *Loop) Go(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, fn)
}

// Pending returns the number of held background functions.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Flush runs posted functions until none are left.
func (l *Loop) Flush() {
	for {
		l.mu.Lock()
		if len(l.posted) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.posted[0]
		l.posted = l.posted[1:]
		l.mu.Unlock()
		fn()
	}
}

// RunGo runs the i-th held background function, then flushes.
func (l *Loop) RunGo(i int) {
	l.mu.Lock()
	fn := l.pending[i]
	l.pending = append(l.pending[:i], l.pending[i+1:]...)
	l.mu.Unlock()
	fn()
	l.Flush()
}

// Drain runs held background functions in order, and whatever they post,
// until the loop is idle.
func (l *Loop) Drain() {
	l.Flush()
	for l.Pending() > 0 {
		l.RunGo(0)
	}
}

// Provider is an in-memory object search service.
type Provider struct {
	mu sync.Mutex

	Objs map[string][]core.ObjectMinData
	IDs  map[string][]int64
	Errs map[string]error

	Calls []radar.Query
}

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{
		Objs: make(map[string][]core.ObjectMinData),
		IDs:  make(map[string][]int64),
		Errs: make(map[string]error),
	}
}

// GetObjs returns the objects registered for q.Query, capped at q.Limit.
func (p *Provider) GetObjs(_ context.Context, q radar.Query) ([]core.ObjectMinData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, q)
	if err := p.Errs[q.Query]; err != nil {
		return nil, err
	}
	objs := p.Objs[q.Query]
	if q.Limit > 0 && len(objs) > q.Limit {
		objs = objs[:q.Limit]
	}
	return append([]core.ObjectMinData(nil), objs...), nil
}

// GetObjIDs returns the ids registered for q.Query, or the ids of the
// registered objects.
func (p *Provider) GetObjIDs(_ context.Context, q radar.Query) ([]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, q)
	if err := p.Errs[q.Query]; err != nil {
		return nil, err
	}
	if ids, ok := p.IDs[q.Query]; ok {
		return ids, nil
	}
	var ids []int64
	for _, o := range p.Objs[q.Query] {
		ids = append(ids, o.ObjID)
	}
	return ids, nil
}

// Queries returns the query strings received so far.
func (p *Provider) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Calls))
	for i, c := range p.Calls {
		out[i] = c.Query
	}
	return out
}

// Obj builds a search result at x,z.
func Obj(id int64, name string, x, z float64) core.ObjectMinData {
	return core.ObjectMinData{ObjID: id, Name: name, Pos: [3]float64{x, 0, z}, MapType: radar.MainField}
}
