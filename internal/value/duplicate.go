package value

// Duplicate returns a deep copy of v. Lists, dictionaries and instance
// fields are copied; aliasing inside v is preserved in the copy, so a list
// that contains itself stays cyclic. Functions, natives and classes are
// shared.
func Duplicate(v Value) Value {
	return newCloneState().cloneValue(v)
}

type cloneState struct {
	lists     map[*List]*List
	dicts     map[*Dict]*Dict
	instances map[*Instance]*Instance
}

func newCloneState() *cloneState {
	return &cloneState{
		lists:     make(map[*List]*List),
		dicts:     make(map[*Dict]*Dict),
		instances: make(map[*Instance]*Instance),
	}
}

func (cs *cloneState) cloneValue(v Value) Value {
	switch v.Kind {
	case KindList:
		return Value{Kind: KindList, List: cs.cloneList(v.List)}
	case KindDict:
		return Value{Kind: KindDict, Dict: cs.cloneDict(v.Dict)}
	case KindInstance:
		return Value{Kind: KindInstance, Inst: cs.cloneInstance(v.Inst)}
	default:
		return v
	}
}

func (cs *cloneState) cloneList(l *List) *List {
	if l == nil {
		return nil
	}
	if cloned, ok := cs.lists[l]; ok {
		return cloned
	}
	out := &List{Items: make([]Value, len(l.Items))}
	cs.lists[l] = out
	for i, item := range l.Items {
		out.Items[i] = cs.cloneValue(item)
	}
	return out
}

func (cs *cloneState) cloneDict(d *Dict) *Dict {
	if d == nil {
		return nil
	}
	if cloned, ok := cs.dicts[d]; ok {
		return cloned
	}
	out := NewDictStore()
	cs.dicts[d] = out
	for _, k := range d.keys {
		out.Set(k, cs.cloneValue(d.values[k]))
	}
	return out
}

func (cs *cloneState) cloneInstance(inst *Instance) *Instance {
	if inst == nil {
		return nil
	}
	if cloned, ok := cs.instances[inst]; ok {
		return cloned
	}
	out := &Instance{Class: inst.Class}
	cs.instances[inst] = out
	out.Fields = cs.cloneDict(inst.Fields)
	return out
}
