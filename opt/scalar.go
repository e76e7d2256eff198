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
    `github.com/iburinoc/SPIRV-Tools/spirv`
    `github.com/oleiade/lane`
)

// wrap32 reduces v to the signed 32-bit integer it denotes after
// overflow, then sign-extends it back to int64.
func wrap32(v int64) int64 {
    return int64(int32(v))
}

// ScalarEvolutionAnalysis builds closed-form expressions for the
// integer values of one function. All nodes produced by a session are
// interned together, so structurally equal expressions share one
// pointer.
type ScalarEvolutionAnalysis struct {
    ctx     *Context
    fn      *spirv.Function
    loops   *LoopDescriptor
    store   _NodeStore
    insts   map[spirv.ID]*SENode
    simpl   map[*SENode]*SENode
    pending map[spirv.ID]struct{}
}

func NewScalarEvolutionAnalysis(ctx *Context, fn *spirv.Function) *ScalarEvolutionAnalysis {
    return &ScalarEvolutionAnalysis {
        ctx     : ctx,
        fn      : fn,
        loops   : ctx.LoopDescriptor(fn),
        store   : newNodeStore(),
        insts   : make(map[spirv.ID]*SENode),
        simpl   : make(map[*SENode]*SENode),
        pending : make(map[spirv.ID]struct{}),
    }
}

/** Public Constructors **/

// CreateConstant returns the interned constant node for v, reduced to
// 32 bits.
func (self *ScalarEvolutionAnalysis) CreateConstant(v int64) *SENode {
    return self.store.constant(wrap32(v))
}

// CreateValueUnknownNode returns the opaque node standing for the
// result of ins.
func (self *ScalarEvolutionAnalysis) CreateValueUnknownNode(ins *spirv.Instruction) *SENode {
    return self.store.unknown(ins.Result)
}

// CreateCantComputeNode returns the session's CanNotCompute node.
func (self *ScalarEvolutionAnalysis) CreateCantComputeNode() *SENode {
    return self.store.cantCompute()
}

// CreateAddNode returns the unsimplified sum of two expressions.
func (self *ScalarEvolutionAnalysis) CreateAddNode(a *SENode, b *SENode) *SENode {
    return self.store.add([]*SENode { a, b })
}

// CreateMultiplyNode returns the unsimplified product of two
// expressions.
func (self *ScalarEvolutionAnalysis) CreateMultiplyNode(a *SENode, b *SENode) *SENode {
    return self.store.multiply([]*SENode { a, b })
}

// CreateNegativeNode returns the negation of an expression. Constants
// fold immediately, everything else gets a Negative wrapper.
func (self *ScalarEvolutionAnalysis) CreateNegativeNode(p *SENode) *SENode {
    if p.kind == SEConstant {
        return self.store.constant(wrap32(-p.val))
    } else {
        return self.store.negative(p)
    }
}

// CreateSubtraction returns a - b as a sum with a negated term.
func (self *ScalarEvolutionAnalysis) CreateSubtraction(a *SENode, b *SENode) *SENode {
    return self.store.add([]*SENode { a, self.CreateNegativeNode(b) })
}

/** Instruction Analysis **/

type _PhiRecurrence struct {
    loop  *Loop
    entry spirv.ID
    step  spirv.ID
    sub   bool
}

// AnalyzeInstruction returns the scalar evolution of the value
// computed by ins. Results are memoized for the session.
func (self *ScalarEvolutionAnalysis) AnalyzeInstruction(ins *spirv.Instruction) *SENode {
    if ins == nil || ins.Result == 0 {
        return self.store.cantCompute()
    }
    if r, ok := self.insts[ins.Result]; ok {
        return r
    }

    /* two-visit DFS: the first visit pushes unresolved dependencies,
     * the second resolves the node itself */
    s := lane.NewStack()
    s.Push(ins)
    for !s.Empty() {
        p := s.Head().(*spirv.Instruction)
        if _, ok := self.insts[p.Result]; ok {
            s.Pop()
            continue
        }
        if deps := self.analyzeDeps(p); len(deps) == 0 {
            s.Pop()
            delete(self.pending, p.Result)
            self.insts[p.Result] = self.analyzeNode(p)
        } else {
            self.pending[p.Result] = struct{}{}
            for _, d := range deps {
                s.Push(d)
            }
        }
    }
    return self.insts[ins.Result]
}

// analyzeDeps lists the defining instructions that must resolve
// before p can. Operands already resolved, or in flight on the stack,
// are not dependencies.
func (self *ScalarEvolutionAnalysis) analyzeDeps(p *spirv.Instruction) []*spirv.Instruction {
    r := []*spirv.Instruction(nil)
    add := func(id spirv.ID) {
        if _, ok := self.insts[id]; ok {
            return
        }
        if _, ok := self.pending[id]; ok {
            return
        }
        if q := self.ctx.DefUse().GetDef(id); q != nil {
            r = append(r, q)
        }
    }
    switch p.Op {
        case spirv.OpIAdd: fallthrough
        case spirv.OpISub: fallthrough
        case spirv.OpIMul: {
            add(p.In[0])
            add(p.In[1])
        }
        case spirv.OpSNegate: {
            add(p.In[0])
        }
        case spirv.OpPhi: {
            if m := self.matchRecurrence(p); m != nil {
                add(m.entry)
                add(m.step)
            }
        }
    }
    return r
}

// valueNode returns the resolved node for id. An id still in flight
// means the request closed a cycle, which is unresolvable.
func (self *ScalarEvolutionAnalysis) valueNode(id spirv.ID) *SENode {
    if r, ok := self.insts[id]; ok {
        return r
    } else {
        return self.store.cantCompute()
    }
}

func (self *ScalarEvolutionAnalysis) analyzeNode(p *spirv.Instruction) *SENode {
    switch p.Op {
        case spirv.OpConstant : return self.analyzeConstant(p)
        case spirv.OpIAdd     : return self.CreateAddNode(self.valueNode(p.In[0]), self.valueNode(p.In[1]))
        case spirv.OpISub     : return self.CreateSubtraction(self.valueNode(p.In[0]), self.valueNode(p.In[1]))
        case spirv.OpIMul     : return self.CreateMultiplyNode(self.valueNode(p.In[0]), self.valueNode(p.In[1]))
        case spirv.OpSNegate  : return self.CreateNegativeNode(self.valueNode(p.In[0]))
        case spirv.OpPhi      : return self.analyzePhi(p)
        default               : return self.store.unknown(p.Result)
    }
}

func (self *ScalarEvolutionAnalysis) analyzeConstant(p *spirv.Instruction) *SENode {
    if ty := self.ctx.DefUse().GetDef(p.Type); ty != nil && ty.Op == spirv.OpTypeInt {
        return self.store.constant(p.ConstantValue())
    } else {
        return self.store.unknown(p.Result)
    }
}

// matchRecurrence recognizes the canonical induction shape: a header
// phi with one entry edge and one back edge whose incoming value is
// an OpIAdd or OpISub of the phi itself and a step value.
func (self *ScalarEvolutionAnalysis) matchRecurrence(p *spirv.Instruction) *_PhiRecurrence {
    lp := self.loops.EnclosingLoop(p.Block().Id)
    if lp == nil || lp.Header != p.Block() || p.NumOperands() != 4 {
        return nil
    }

    /* split the incoming pairs on loop membership of the predecessor */
    back, entry := spirv.ID(0), spirv.ID(0)
    for i := 0; i < 4; i += 2 {
        if lp.Contains(p.In[i + 1]) {
            back = p.In[i]
        } else {
            entry = p.In[i]
        }
    }
    if back == 0 || entry == 0 {
        return nil
    }

    /* the back edge value must step the phi itself */
    bi := self.ctx.DefUse().GetDef(back)
    if bi == nil {
        return nil
    }
    m := &_PhiRecurrence { loop: lp, entry: entry }
    switch {
        case bi.Op == spirv.OpIAdd && bi.In[0] == p.Result : m.step = bi.In[1]
        case bi.Op == spirv.OpIAdd && bi.In[1] == p.Result : m.step = bi.In[0]
        case bi.Op == spirv.OpISub && bi.In[0] == p.Result : m.step, m.sub = bi.In[1], true
        default                                            : return nil
    }
    if m.step == p.Result {
        return nil
    }
    return m
}

func (self *ScalarEvolutionAnalysis) analyzePhi(p *spirv.Instruction) *SENode {
    m := self.matchRecurrence(p)
    if m == nil {
        return self.store.cantCompute()
    }

    /* offset from the entry edge, coefficient from the step */
    off := self.valueNode(m.entry)
    coeff := self.valueNode(m.step)
    if m.sub {
        coeff = self.CreateNegativeNode(coeff)
    }

    /* a step that varies with this loop is not a linear recurrence */
    if off.ContainsCanNotCompute() || coeff.ContainsCanNotCompute() || coeff.ContainsRecurrence(m.loop) {
        return self.store.cantCompute()
    }
    return self.store.recurrent(m.loop, coeff, off)
}

/** Invariance Queries **/

// IsLoopInvariant reports whether the value of node is the same on
// every iteration of lp. CanNotCompute is never invariant.
func (self *ScalarEvolutionAnalysis) IsLoopInvariant(node *SENode, lp *Loop) bool {
    s := []*SENode { node }
    for len(s) != 0 {
        p := s[len(s) - 1]
        s = s[:len(s) - 1]
        switch p.kind {
            case SECanNotCompute: {
                return false
            }
            case SERecurrentAddExpr: {
                if p.loop == lp || lp.Contains(p.loop.Header.Id) {
                    return false
                }
                s = append(s, p.kids...)
            }
            case SEValueUnknown: {
                if d := self.ctx.DefUse().GetDef(p.src); d != nil && d.Block() != nil && lp.Contains(d.Block().Id) {
                    return false
                }
            }
            default: {
                s = append(s, p.kids...)
            }
        }
    }
    return true
}
