package compiler

// loop records the jump sites of one enclosing loop. Break jumps are
// patched once the loop's end is known.
type loop struct {
	continueTarget int
	breaks         []int
	// iterator loops keep two slots on the stack that a break must drop.
	iterator bool
}

// scope tracks the loops of the function body being compiled. A nested
// function starts with no loops, so break cannot cross a call boundary.
type scope struct {
	enclosing *scope
	function  string
	loops     []*loop
}

func newScope(enclosing *scope, function string) *scope {
	return &scope{enclosing: enclosing, function: function}
}

func (s *scope) pushLoop(continueTarget int, iterator bool) *loop {
	l := &loop{continueTarget: continueTarget, iterator: iterator}
	s.loops = append(s.loops, l)
	return l
}

func (s *scope) popLoop() {
	s.loops = s.loops[:len(s.loops)-1]
}

// innermost returns the nearest loop, or nil outside any loop.
func (s *scope) innermost() *loop {
	if len(s.loops) == 0 {
		return nil
	}
	return s.loops[len(s.loops)-1]
}
