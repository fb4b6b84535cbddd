package btr

import (
	"container/list"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// exprProgramCache is an LRU of compiled expr-lang programs, grounded in
// mbflow's ConditionCache: Priority nodes recompile their ordering
// expression on every tick unless its *vm.Program is cached, and trees can
// have many Priority nodes each with their own expression.
type exprProgramCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

type exprCacheEntry struct {
	key     string
	program *vm.Program
}

func newExprProgramCache(capacity int) *exprProgramCache {
	return &exprProgramCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *exprProgramCache) get(key string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*exprCacheEntry).program, true
}

func (c *exprProgramCache) put(key string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*exprCacheEntry).program = program
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&exprCacheEntry{key: key, program: program})
	c.items[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*exprCacheEntry).key)
		}
	}
}

// compileAndCache compiles source once per key and reuses the program on
// every subsequent call, so a hot Priority node never pays compile cost
// after its first tick.
func (c *exprProgramCache) compileAndCache(key, source string) (*vm.Program, error) {
	if program, ok := c.get(key); ok {
		return program, nil
	}
	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	c.put(key, program)
	return program, nil
}

const defaultExprCacheSize = 256

var priorityExprCache = newExprProgramCache(defaultExprCacheSize)
