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
    `testing`

    `github.com/iburinoc/SPIRV-Tools/spirv`
    `github.com/stretchr/testify/require`
)

// buildNestedLoops lays out two structured loops, one inside the
// other:
//
//      entry -> oh -> oc -> ob -> ih -> ic -> ib -> il -> ih
//                 `-> om          `-> im -> ol -> oh
func buildNestedLoops() (*spirv.Module, *spirv.Function, map[string]*spirv.BasicBlock) {
    b := spirv.CreateBuilder()
    i32 := b.TypeInt(32, true)
    c0 := b.ConstantInt(i32, 0)
    c10 := b.ConstantInt(i32, 10)

    fn := b.NewFunction(b.TypeVoid())
    entry := b.NewBlock()
    oh := b.NewBlock()
    oc := b.NewBlock()
    ob := b.NewBlock()
    ih := b.NewBlock()
    ic := b.NewBlock()
    ib := b.NewBlock()
    il := b.NewBlock()
    im := b.NewBlock()
    ol := b.NewBlock()
    om := b.NewBlock()

    b.SetBlock(entry)
    b.Branch(oh)

    b.SetBlock(oh)
    b.LoopMerge(om, ol)
    b.Branch(oc)

    b.SetBlock(oc)
    b.BranchCond(b.SLessThan(c0, c10), ob, om)

    b.SetBlock(ob)
    b.Branch(ih)

    b.SetBlock(ih)
    b.LoopMerge(im, il)
    b.Branch(ic)

    b.SetBlock(ic)
    b.BranchCond(b.SLessThan(c0, c10), ib, im)

    b.SetBlock(ib)
    b.Branch(il)

    b.SetBlock(il)
    b.Branch(ih)

    b.SetBlock(im)
    b.Branch(ol)

    b.SetBlock(ol)
    b.Branch(oh)

    b.SetBlock(om)
    b.Return()

    blocks := map[string]*spirv.BasicBlock {
        "entry": entry, "oh": oh, "oc": oc, "ob": ob, "ih": ih,
        "ic": ic, "ib": ib, "il": il, "im": im, "ol": ol, "om": om,
    }
    return b.Module(), fn, blocks
}

func TestLoopDescriptor_NestedLoops(t *testing.T) {
    mod, fn, bb := buildNestedLoops()
    ctx := NewContext(mod)
    ld := ctx.LoopDescriptor(fn)
    require.Len(t, ld.Loops(), 2)
    require.Len(t, ld.RootLoops(), 1)

    outer := ld.RootLoops()[0]
    require.Equal(t, bb["oh"], outer.Header)
    require.Equal(t, bb["ol"], outer.Latch)
    require.Equal(t, bb["entry"], outer.Preheader)
    require.Equal(t, bb["om"], outer.Merge)
    require.Equal(t, 1, outer.Depth())

    inner := ld.EnclosingLoop(bb["ib"].Id)
    require.NotNil(t, inner)
    require.Equal(t, bb["ih"], inner.Header)
    require.Equal(t, bb["il"], inner.Latch)
    require.Equal(t, bb["ob"], inner.Preheader)
    require.Equal(t, bb["im"], inner.Merge)
    require.Same(t, outer, inner.Parent)
    require.Equal(t, 2, inner.Depth())

    /* membership: the inner body is in both, the outer spine only in
     * the outer loop */
    require.True(t, outer.Contains(bb["ib"].Id))
    require.True(t, inner.Contains(bb["ic"].Id))
    require.False(t, inner.Contains(bb["oc"].Id))
    require.False(t, outer.Contains(bb["om"].Id))

    require.Same(t, outer, ld.EnclosingLoop(bb["oc"].Id))
    require.Nil(t, ld.EnclosingLoop(bb["entry"].Id))
    require.Nil(t, ld.EnclosingLoop(bb["om"].Id))
}

func TestDominatorAnalysis_Queries(t *testing.T) {
    mod, fn, bb := buildNestedLoops()
    dom := NewContext(mod).Dominators(fn)

    require.Equal(t, spirv.ID(0), dom.ImmediateDominator(bb["entry"].Id))
    require.Equal(t, bb["entry"].Id, dom.ImmediateDominator(bb["oh"].Id))
    require.Equal(t, bb["oh"].Id, dom.ImmediateDominator(bb["oc"].Id))
    require.Equal(t, bb["ic"].Id, dom.ImmediateDominator(bb["ib"].Id))

    require.True(t, dom.Dominates(bb["oh"].Id, bb["il"].Id))
    require.True(t, dom.Dominates(bb["oh"].Id, bb["oh"].Id))
    require.True(t, dom.StrictlyDominates(bb["entry"].Id, bb["om"].Id))
    require.False(t, dom.StrictlyDominates(bb["oh"].Id, bb["oh"].Id))
    require.True(t, dom.Dominates(bb["ib"].Id, bb["il"].Id))
    require.False(t, dom.Dominates(bb["ib"].Id, bb["im"].Id))
}
