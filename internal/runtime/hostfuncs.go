package runtime

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/asg"
)

// host binds the graph host functions to one Factory.
type host struct {
	f   *asg.Factory
	sim asg.SimilarityOptions
}

func (h *host) builtins() map[string]*object.Builtin {
	return map[string]*object.Builtin{
		"root":        h.rootFn(),
		"node":        h.nodeFn(),
		"nodes":       h.nodesFn(),
		"children":    h.childrenFn(),
		"edges":       h.edgesFn(),
		"reverse":     h.reverseFn(),
		"attr":        h.attrFn(),
		"set_attr":    h.setAttrFn(),
		"create":      h.createFn(),
		"add_edge":    h.addEdgeFn(),
		"set_edge":    h.setEdgeFn(),
		"delete_node": h.deleteFn(),
		"hash":        h.hashFn(),
		"similarity":  h.similarityFn(),
		"filter":      h.filterFn(),
	}
}

// root() → id
func (h *host) rootFn() *object.Builtin {
	return object.NewBuiltin("root", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("root", 0, len(args))
		}
		return object.NewInt(int64(h.f.RootID()))
	})
}

// node(id) → map with id, kind, parent, parent_edge and every attribute by
// name. Returns nil for ids that are dead or filtered.
func (h *host) nodeFn() *object.Builtin {
	return object.NewBuiltin("node", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node", 1, len(args))
		}
		id, err := toNodeID(args[0])
		if err != nil {
			return object.Errorf("node: %v", err)
		}
		if !h.f.Exists(id) || h.f.IsFiltered(id) {
			return object.Nil
		}
		n, err := h.f.Node(id)
		if err != nil {
			return object.Errorf("node: %v", err)
		}
		return h.nodeMap(n)
	})
}

// nodes(kind?) → list of ids, optionally restricted to kind and its
// derived kinds.
func (h *host) nodesFn() *object.Builtin {
	return object.NewBuiltin("nodes", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) > 1 {
			return object.NewArgsError("nodes", 1, len(args))
		}
		var ids []object.Object
		if len(args) == 0 {
			for n := range h.f.Nodes() {
				ids = append(ids, object.NewInt(int64(n.ID())))
			}
			return object.NewList(ids)
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("nodes: %v", err)
		}
		kind, ok := asg.ParseNodeKind(name)
		if !ok {
			return object.Errorf("nodes: unknown kind %q", name)
		}
		for n := range h.f.NodesOfKind(kind) {
			ids = append(ids, object.NewInt(int64(n.ID())))
		}
		return object.NewList(ids)
	})
}

// children(id) → ids owned by id, in schema edge order.
func (h *host) childrenFn() *object.Builtin {
	return object.NewBuiltin("children", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("children", 1, len(args))
		}
		id, err := toNodeID(args[0])
		if err != nil {
			return object.Errorf("children: %v", err)
		}
		kind, err := h.f.Kind(id)
		if err != nil {
			return object.Errorf("children: %v", err)
		}
		var out []object.Object
		for _, e := range asg.EdgesOf(kind) {
			if !e.IsOwnership() {
				continue
			}
			targets, err := h.f.Edges(id, e)
			if err != nil {
				return object.Errorf("children: %v", err)
			}
			out = append(out, idList(targets)...)
		}
		return object.NewList(out)
	})
}

// edges(id, edge) → list of {id, payload} maps for one edge of id.
func (h *host) edgesFn() *object.Builtin {
	return object.NewBuiltin("edges", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("edges", 2, len(args))
		}
		id, e, err := h.edgeArgs(args[0], args[1])
		if err != nil {
			return object.Errorf("edges: %v", err)
		}
		targets, err := h.f.EdgeTargets(id, e)
		if err != nil {
			return object.Errorf("edges: %v", err)
		}
		out := make([]object.Object, 0, len(targets))
		for _, t := range targets {
			out = append(out, object.NewMap(map[string]object.Object{
				"id":      object.NewInt(int64(t.ID)),
				"payload": object.NewInt(int64(t.Payload)),
			}))
		}
		return object.NewList(out)
	})
}

// reverse(id, edge) → ids of nodes pointing at id through edge. The edge
// name must be qualified ("Method.Calls") since the source kind is unknown.
func (h *host) reverseFn() *object.Builtin {
	return object.NewBuiltin("reverse", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("reverse", 2, len(args))
		}
		id, err := toNodeID(args[0])
		if err != nil {
			return object.Errorf("reverse: %v", err)
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("reverse: %v", err)
		}
		e, ok := asg.ParseEdgeKind(name)
		if !ok {
			return object.Errorf("reverse: unknown edge %q", name)
		}
		srcs, err := h.f.ReverseEdges(id, e)
		if err != nil {
			return object.Errorf("reverse: %v", err)
		}
		return object.NewList(idList(srcs))
	})
}

// attr(id, name) → attribute value.
func (h *host) attrFn() *object.Builtin {
	return object.NewBuiltin("attr", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("attr", 2, len(args))
		}
		id, a, err := h.attrArgs(args[0], args[1])
		if err != nil {
			return object.Errorf("attr: %v", err)
		}
		v, err := h.f.GetAttr(id, a)
		if err != nil {
			return object.Errorf("attr: %v", err)
		}
		return valueObject(a, v)
	})
}

// set_attr(id, name, value). Strings go through asg.ParseValue, so enums
// accept their names and ranges their "path:l:c-l:c" form.
func (h *host) setAttrFn() *object.Builtin {
	return object.NewBuiltin("set_attr", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("set_attr", 3, len(args))
		}
		id, a, err := h.attrArgs(args[0], args[1])
		if err != nil {
			return object.Errorf("set_attr: %v", err)
		}
		var text string
		switch v := args[2].(type) {
		case *object.String:
			text = v.Value()
		case *object.Bool:
			text = strconv.FormatBool(v.Value())
		case *object.Int:
			text = strconv.FormatInt(v.Value(), 10)
		default:
			return object.Errorf("set_attr: unsupported value type %s", args[2].Type())
		}
		val, err := asg.ParseValue(a, text)
		if err != nil {
			return object.Errorf("set_attr: %v", err)
		}
		if err := h.f.SetAttr(id, a, val); err != nil {
			return object.Errorf("set_attr: %v", err)
		}
		return object.Nil
	})
}

// create(kind) → id of a new detached node.
func (h *host) createFn() *object.Builtin {
	return object.NewBuiltin("create", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("create", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("create: %v", err)
		}
		kind, ok := asg.ParseNodeKind(name)
		if !ok {
			return object.Errorf("create: unknown kind %q", name)
		}
		n, err := h.f.Create(kind)
		if err != nil {
			return object.Errorf("create: %v", err)
		}
		return object.NewInt(int64(n.ID()))
	})
}

// add_edge(src, edge, dst, payload?)
func (h *host) addEdgeFn() *object.Builtin {
	return object.NewBuiltin("add_edge", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 && len(args) != 4 {
			return object.NewArgsError("add_edge", 3, len(args))
		}
		src, e, err := h.edgeArgs(args[0], args[1])
		if err != nil {
			return object.Errorf("add_edge: %v", err)
		}
		dst, err := toNodeID(args[2])
		if err != nil {
			return object.Errorf("add_edge: %v", err)
		}
		var payload int64
		if len(args) == 4 {
			if payload, err = toInt64(args[3]); err != nil {
				return object.Errorf("add_edge: payload: %v", err)
			}
			if payload < 0 || payload > math.MaxUint32 {
				return object.Errorf("add_edge: payload %d out of range", payload)
			}
		}
		if err := h.f.AddEdgePayload(src, e, dst, uint32(payload)); err != nil {
			return object.Errorf("add_edge: %v", err)
		}
		return object.Nil
	})
}

// set_edge(src, edge, dst). A dst of 0 clears an optional edge.
func (h *host) setEdgeFn() *object.Builtin {
	return object.NewBuiltin("set_edge", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("set_edge", 3, len(args))
		}
		src, e, err := h.edgeArgs(args[0], args[1])
		if err != nil {
			return object.Errorf("set_edge: %v", err)
		}
		dst, err := toNodeID(args[2])
		if err != nil {
			return object.Errorf("set_edge: %v", err)
		}
		if err := h.f.SetEdge(src, e, dst); err != nil {
			return object.Errorf("set_edge: %v", err)
		}
		return object.Nil
	})
}

// delete_node(id) removes id and its owned subtree.
func (h *host) deleteFn() *object.Builtin {
	return object.NewBuiltin("delete_node", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("delete_node", 1, len(args))
		}
		id, err := toNodeID(args[0])
		if err != nil {
			return object.Errorf("delete_node: %v", err)
		}
		if err := h.f.Delete(id); err != nil {
			return object.Errorf("delete_node: %v", err)
		}
		return object.Nil
	})
}

// hash(id) → structural hash of the subtree at id.
func (h *host) hashFn() *object.Builtin {
	return object.NewBuiltin("hash", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("hash", 1, len(args))
		}
		id, err := toNodeID(args[0])
		if err != nil {
			return object.Errorf("hash: %v", err)
		}
		sum, err := h.f.Hash(id)
		if err != nil {
			return object.Errorf("hash: %v", err)
		}
		return object.NewInt(int64(sum))
	})
}

// similarity(a, b) → score in [0, 1].
func (h *host) similarityFn() *object.Builtin {
	return object.NewBuiltin("similarity", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("similarity", 2, len(args))
		}
		var nodes [2]asg.Node
		for i, arg := range args {
			id, err := toNodeID(arg)
			if err != nil {
				return object.Errorf("similarity: %v", err)
			}
			if nodes[i], err = h.f.Node(id); err != nil {
				return object.Errorf("similarity: %v", err)
			}
		}
		return object.NewFloat(h.sim.Similarity(nodes[0], nodes[1]))
	})
}

// filter(id) hides id and its owned subtree; filter(id, false) shows them
// again.
func (h *host) filterFn() *object.Builtin {
	return object.NewBuiltin("filter", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 && len(args) != 2 {
			return object.NewArgsError("filter", 1, len(args))
		}
		id, err := toNodeID(args[0])
		if err != nil {
			return object.Errorf("filter: %v", err)
		}
		hide := true
		if len(args) == 2 {
			b, ok := args[1].(*object.Bool)
			if !ok {
				return object.Errorf("filter: expected bool, got %s", args[1].Type())
			}
			hide = b.Value()
		}
		if hide {
			err = h.f.Filter().SetFiltered(id)
		} else {
			err = h.f.Filter().SetNotFiltered(id)
		}
		if err != nil {
			return object.Errorf("filter: %v", err)
		}
		return object.Nil
	})
}

func (h *host) nodeMap(n asg.Node) object.Object {
	m := map[string]object.Object{
		"id":          object.NewInt(int64(n.ID())),
		"kind":        object.NewString(n.Kind().String()),
		"parent":      object.NewInt(0),
		"parent_edge": object.NewString(""),
	}
	if p := n.Parent(); p != nil {
		m["parent"] = object.NewInt(int64(p.ID()))
		m["parent_edge"] = object.NewString(n.ParentEdge().String())
	}
	for _, a := range asg.AttrsOf(n.Kind()) {
		v, err := h.f.GetAttr(n.ID(), a)
		if err != nil {
			continue
		}
		m[a.Name()] = valueObject(a, v)
	}
	return object.NewMap(m)
}

func (h *host) edgeArgs(idArg, edgeArg object.Object) (asg.NodeID, asg.EdgeKind, error) {
	id, err := toNodeID(idArg)
	if err != nil {
		return 0, asg.EdgeNone, err
	}
	name, err := toString(edgeArg)
	if err != nil {
		return 0, asg.EdgeNone, err
	}
	kind, err := h.f.Kind(id)
	if err != nil {
		return 0, asg.EdgeNone, err
	}
	e, ok := asg.EdgeByName(kind, name)
	if !ok {
		return 0, asg.EdgeNone, fmt.Errorf("%s has no edge %q", kind, name)
	}
	return id, e, nil
}

func (h *host) attrArgs(idArg, nameArg object.Object) (asg.NodeID, asg.AttrKind, error) {
	id, err := toNodeID(idArg)
	if err != nil {
		return 0, asg.AttrNone, err
	}
	name, err := toString(nameArg)
	if err != nil {
		return 0, asg.AttrNone, err
	}
	kind, err := h.f.Kind(id)
	if err != nil {
		return 0, asg.AttrNone, err
	}
	a, ok := asg.AttrByName(kind, name)
	if !ok {
		return 0, asg.AttrNone, fmt.Errorf("%s has no attribute %q", kind, name)
	}
	return id, a, nil
}

// valueObject converts an attribute value for scripts: booleans stay
// booleans, everything else is rendered by asg.FormatValue.
func valueObject(a asg.AttrKind, v asg.Value) object.Object {
	if v.Type == asg.AttrBool {
		return object.NewBool(v.Bool)
	}
	return object.NewString(asg.FormatValue(a, v))
}

func idList(ids []asg.NodeID) []object.Object {
	out := make([]object.Object, len(ids))
	for i, id := range ids {
		out[i] = object.NewInt(int64(id))
	}
	return out
}

func toNodeID(obj object.Object) (asg.NodeID, error) {
	v, err := toInt64(obj)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > int64(^uint32(0)) {
		return 0, fmt.Errorf("node id %d out of range", v)
	}
	return asg.NodeID(v), nil
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	l *zap.SugaredLogger
}

func (l *logObject) Info(msg string) {
	l.l.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.l.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.l.Error(msg)
}
