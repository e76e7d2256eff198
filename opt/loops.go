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
    `sort`

    `github.com/iburinoc/SPIRV-Tools/spirv`
    `github.com/oleiade/lane`
)

// Loop is one natural loop: a header dominating the source of a back
// edge, plus every block on a path from the header to that source.
type Loop struct {
    Header    *spirv.BasicBlock
    Latch     *spirv.BasicBlock
    Preheader *spirv.BasicBlock
    Merge     *spirv.BasicBlock
    Parent    *Loop
    Nested    []*Loop
    blocks    map[spirv.ID]struct{}
}

// Contains reports whether block id belongs to the loop body,
// header and latch included.
func (self *Loop) Contains(id spirv.ID) bool {
    _, ok := self.blocks[id]
    return ok
}

// NumBlocks returns the body size in blocks.
func (self *Loop) NumBlocks() int {
    return len(self.blocks)
}

// Depth returns the nesting depth, 1 for an outermost loop.
func (self *Loop) Depth() int {
    d := 1
    for p := self.Parent; p != nil; p = p.Parent {
        d++
    }
    return d
}

// LoopDescriptor is the loop nest of one function.
type LoopDescriptor struct {
    fn    *spirv.Function
    loops []*Loop
    inner map[spirv.ID]*Loop
}

func newLoopDescriptor(fn *spirv.Function, dom *DominatorAnalysis) *LoopDescriptor {
    preds := blockPreds(fn)
    backs := make(map[*spirv.BasicBlock][]*spirv.BasicBlock)
    heads := []*spirv.BasicBlock(nil)

    /* back edge: target dominates source */
    for _, bb := range fn.Blocks {
        for _, s := range bb.Succs() {
            if h := fn.Block(s); h != nil && dom.Dominates(h.Id, bb.Id) {
                if _, ok := backs[h]; !ok {
                    heads = append(heads, h)
                }
                backs[h] = append(backs[h], bb)
            }
        }
    }

    /* one loop per header */
    self := &LoopDescriptor {
        fn    : fn,
        inner : make(map[spirv.ID]*Loop),
    }
    for _, h := range heads {
        self.loops = append(self.loops, buildLoop(h, backs[h], preds))
    }

    /* nest by body inclusion, smallest bodies first so that the first
     * enclosing loop found is the innermost one */
    sort.SliceStable(self.loops, func(i int, j int) bool {
        return self.loops[i].NumBlocks() < self.loops[j].NumBlocks()
    })
    for i, lp := range self.loops {
        for _, outer := range self.loops[i + 1:] {
            if outer.Contains(lp.Header.Id) {
                lp.Parent = outer
                outer.Nested = append(outer.Nested, lp)
                break
            }
        }
    }

    /* innermost loop per block */
    for _, lp := range self.loops {
        for id := range lp.blocks {
            if _, ok := self.inner[id]; !ok {
                self.inner[id] = lp
            }
        }
    }
    return self
}

func buildLoop(h *spirv.BasicBlock, latches []*spirv.BasicBlock, preds map[spirv.ID][]*spirv.BasicBlock) *Loop {
    lp := &Loop {
        Header : h,
        Latch  : latches[0],
        blocks : map[spirv.ID]struct{} { h.Id: {} },
    }

    /* walk the CFG backwards from the latches to the header */
    q := lane.NewQueue()
    for _, bb := range latches {
        if _, ok := lp.blocks[bb.Id]; !ok {
            lp.blocks[bb.Id] = struct{}{}
            q.Enqueue(bb)
        }
    }
    for !q.Empty() {
        bb := q.Dequeue().(*spirv.BasicBlock)
        for _, p := range preds[bb.Id] {
            if _, ok := lp.blocks[p.Id]; !ok {
                lp.blocks[p.Id] = struct{}{}
                q.Enqueue(p)
            }
        }
    }

    /* the continue target of the merge instruction, when present,
     * names the latch */
    if mi := h.LoopMerge(); mi != nil {
        lp.Merge = h.Function().Block(mi.In[0])
        if ct := h.Function().Block(mi.In[1]); ct != nil && lp.Contains(ct.Id) {
            lp.Latch = ct
        }
    }

    /* preheader: the unique predecessor of the header from outside */
    out := []*spirv.BasicBlock(nil)
    for _, p := range preds[h.Id] {
        if !lp.Contains(p.Id) {
            out = append(out, p)
        }
    }
    if len(out) == 1 {
        lp.Preheader = out[0]
    }
    return lp
}

// Loops returns every loop in the function, innermost first.
func (self *LoopDescriptor) Loops() []*Loop {
    return self.loops
}

// RootLoops returns the outermost loops.
func (self *LoopDescriptor) RootLoops() []*Loop {
    r := []*Loop(nil)
    for _, lp := range self.loops {
        if lp.Parent == nil {
            r = append(r, lp)
        }
    }
    return r
}

// EnclosingLoop returns the innermost loop containing block id, or
// nil if the block is not inside any loop.
func (self *LoopDescriptor) EnclosingLoop(id spirv.ID) *Loop {
    return self.inner[id]
}
