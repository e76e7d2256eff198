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
    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`
)

// blockPreds computes the CFG predecessors of every block in fn, in
// layout order of the predecessor blocks.
func blockPreds(fn *spirv.Function) map[spirv.ID][]*spirv.BasicBlock {
    r := make(map[spirv.ID][]*spirv.BasicBlock, len(fn.Blocks))
    for _, bb := range fn.Blocks {
        for _, s := range bb.Succs() {
            r[s] = append(r[s], bb)
        }
    }
    return r
}

// DominatorAnalysis answers dominance queries over the CFG of one
// function.
type DominatorAnalysis struct {
    fn   *spirv.Function
    tree flow.DominatorTree
}

func newDominatorAnalysis(fn *spirv.Function) *DominatorAnalysis {
    g := simple.NewDirectedGraph()

    /* register every block */
    for _, bb := range fn.Blocks {
        g.AddNode(simple.Node(int64(bb.Id)))
    }

    /* add CFG edges, a self-loop does not affect dominance */
    for _, bb := range fn.Blocks {
        for _, s := range bb.Succs() {
            if s != bb.Id {
                g.SetEdge(g.NewEdge(g.Node(int64(bb.Id)), g.Node(int64(s))))
            }
        }
    }

    /* Lengauer-Tarjan from the entry block */
    return &DominatorAnalysis {
        fn   : fn,
        tree : flow.Dominators(g.Node(int64(fn.Entry().Id)), g),
    }
}

// ImmediateDominator returns the immediate dominator of b, or 0 for
// the entry block and for unreachable blocks.
func (self *DominatorAnalysis) ImmediateDominator(b spirv.ID) spirv.ID {
    if n := self.tree.DominatorOf(int64(b)); n == nil {
        return 0
    } else {
        return spirv.ID(n.ID())
    }
}

// Dominates reports whether block a dominates block b. Every block
// dominates itself.
func (self *DominatorAnalysis) Dominates(a spirv.ID, b spirv.ID) bool {
    for b != 0 {
        if a == b {
            return true
        }
        b = self.ImmediateDominator(b)
    }
    return false
}

// StrictlyDominates reports whether a dominates b and a != b.
func (self *DominatorAnalysis) StrictlyDominates(a spirv.ID, b spirv.ID) bool {
    return a != b && self.Dominates(a, b)
}
