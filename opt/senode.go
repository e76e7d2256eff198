/*
 * Copyright 2025 iburinoc
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package opt

import (
    `fmt`
    `strconv`
    `strings`

    `github.com/davecgh/go-spew/spew`
    `github.com/iburinoc/SPIRV-Tools/spirv`
)

// SEKind discriminates scalar evolution expression nodes. Sorting by
// kind keeps constants in front of symbolic terms inside canonical
// composites.
type SEKind uint8

const (
    SEConstant SEKind = iota
    SEValueUnknown
    SERecurrentAddExpr
    SEAdd
    SEMultiply
    SENegative
    SECanNotCompute
)

var _KindNames = map[SEKind]string {
    SEConstant         : "Constant",
    SEValueUnknown     : "ValueUnknown",
    SERecurrentAddExpr : "RecurrentAddExpr",
    SEAdd              : "Add",
    SEMultiply         : "Multiply",
    SENegative         : "Negative",
    SECanNotCompute    : "CanNotCompute",
}

func (self SEKind) String() string {
    if n, ok := _KindNames[self]; ok {
        return n
    } else {
        return fmt.Sprintf("SEKind(%d)", uint8(self))
    }
}

// SENode is one expression in a scalar evolution session. Nodes are
// interned by structure: within a session two nodes are structurally
// equal iff they are the same pointer.
type SENode struct {
    kind SEKind
    key  string
    val  int64
    src  spirv.ID
    loop *Loop
    kids []*SENode
}

// Kind returns the node kind.
func (self *SENode) Kind() SEKind {
    return self.kind
}

// Children returns the operand nodes. Callers must not mutate the
// returned slice.
func (self *SENode) Children() []*SENode {
    return self.kids
}

// Child returns the i-th operand node.
func (self *SENode) Child(i int) *SENode {
    return self.kids[i]
}

// FoldToSingleValue returns the value of a constant node.
func (self *SENode) FoldToSingleValue() int64 {
    if self.kind != SEConstant {
        panic("senode: FoldToSingleValue on a " + self.kind.String() + " node")
    }
    return self.val
}

// ResultId returns the instruction result id an unknown node stands
// for, 0 for every other kind.
func (self *SENode) ResultId() spirv.ID {
    return self.src
}

// Loop returns the loop a recurrent node runs over.
func (self *SENode) Loop() *Loop {
    return self.loop
}

// Coefficient returns the per-iteration step of a recurrent node.
func (self *SENode) Coefficient() *SENode {
    if self.kind != SERecurrentAddExpr {
        panic("senode: Coefficient on a " + self.kind.String() + " node")
    }
    return self.kids[0]
}

// Offset returns the first-iteration value of a recurrent node.
func (self *SENode) Offset() *SENode {
    if self.kind != SERecurrentAddExpr {
        panic("senode: Offset on a " + self.kind.String() + " node")
    }
    return self.kids[1]
}

// ContainsRecurrence reports whether the expression contains a
// recurrent node over lp anywhere in its DAG.
func (self *SENode) ContainsRecurrence(lp *Loop) bool {
    s := []*SENode { self }
    for len(s) != 0 {
        p := s[len(s) - 1]
        s = s[:len(s) - 1]
        if p.kind == SERecurrentAddExpr && p.loop == lp {
            return true
        }
        s = append(s, p.kids...)
    }
    return false
}

// ContainsCanNotCompute reports whether any node of the expression is
// CanNotCompute.
func (self *SENode) ContainsCanNotCompute() bool {
    s := []*SENode { self }
    for len(s) != 0 {
        p := s[len(s) - 1]
        s = s[:len(s) - 1]
        if p.kind == SECanNotCompute {
            return true
        }
        s = append(s, p.kids...)
    }
    return false
}

func (self *SENode) String() string {
    switch self.kind {
        case SEConstant         : return strconv.FormatInt(self.val, 10)
        case SEValueUnknown     : return fmt.Sprintf("%%%d", uint32(self.src))
        case SERecurrentAddExpr : return fmt.Sprintf("{%s,+,%s}", self.kids[1], self.kids[0])
        case SEAdd              : return "(" + joinNodes(self.kids, " + ") + ")"
        case SEMultiply         : return "(" + joinNodes(self.kids, " * ") + ")"
        case SENegative         : return "-" + self.kids[0].String()
        case SECanNotCompute    : return "CanNotCompute"
        default                 : panic("unreachable")
    }
}

func joinNodes(kids []*SENode, sep string) string {
    r := make([]string, len(kids))
    for i, k := range kids {
        r[i] = k.String()
    }
    return strings.Join(r, sep)
}

/** Structural Keys **/

func keyConstant(v int64) string {
    return "$" + strconv.FormatInt(v, 10)
}

func keyUnknown(id spirv.ID) string {
    return "#" + strconv.FormatUint(uint64(id), 10)
}

func keyComposite(tag string, kids []*SENode) string {
    b := strings.Builder{}
    b.WriteByte('(')
    b.WriteString(tag)
    for _, k := range kids {
        b.WriteByte(' ')
        b.WriteString(k.key)
    }
    b.WriteByte(')')
    return b.String()
}

func keyRecurrent(lp *Loop, coeff *SENode, off *SENode) string {
    return fmt.Sprintf("({%d} %s %s)", uint32(lp.Header.Id), coeff.key, off.key)
}

/** Node Store **/

// _NodeStore interns nodes by structural key.
type _NodeStore struct {
    nodes map[string]*SENode
}

func newNodeStore() _NodeStore {
    return _NodeStore { nodes: make(map[string]*SENode) }
}

func (self *_NodeStore) intern(p *SENode) *SENode {
    q, ok := self.nodes[p.key]
    if !ok {
        self.nodes[p.key] = p
        return p
    }
    if q.kind != p.kind || q.val != p.val || q.src != p.src || q.loop != p.loop || len(q.kids) != len(p.kids) {
        panic("senode: key aliases two distinct structures:\n" + spew.Sdump(p, q))
    }
    return q
}

func (self *_NodeStore) constant(v int64) *SENode {
    return self.intern(&SENode {
        kind : SEConstant,
        key  : keyConstant(v),
        val  : v,
    })
}

func (self *_NodeStore) unknown(id spirv.ID) *SENode {
    return self.intern(&SENode {
        kind : SEValueUnknown,
        key  : keyUnknown(id),
        src  : id,
    })
}

func (self *_NodeStore) cantCompute() *SENode {
    return self.intern(&SENode {
        kind : SECanNotCompute,
        key  : "(?)",
    })
}

func (self *_NodeStore) add(kids []*SENode) *SENode {
    return self.intern(&SENode {
        kind : SEAdd,
        key  : keyComposite("+", kids),
        kids : kids,
    })
}

func (self *_NodeStore) multiply(kids []*SENode) *SENode {
    return self.intern(&SENode {
        kind : SEMultiply,
        key  : keyComposite("*", kids),
        kids : kids,
    })
}

func (self *_NodeStore) negative(p *SENode) *SENode {
    return self.intern(&SENode {
        kind : SENegative,
        key  : keyComposite("-", []*SENode { p }),
        kids : []*SENode { p },
    })
}

func (self *_NodeStore) recurrent(lp *Loop, coeff *SENode, off *SENode) *SENode {
    return self.intern(&SENode {
        kind : SERecurrentAddExpr,
        key  : keyRecurrent(lp, coeff, off),
        loop : lp,
        kids : []*SENode { coeff, off },
    })
}
