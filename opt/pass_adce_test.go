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

func countOps(fn *spirv.Function, op spirv.Opcode) int {
    n := 0
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            if p.Op == op {
                n++
            }
        }
    }
    return n
}

func hasResult(fn *spirv.Function, id spirv.ID) bool {
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            if p.Result == id {
                return true
            }
        }
    }
    return false
}

func TestADCE_RemovesDeadStoresAndLocals(t *testing.T) {
    b := spirv.CreateBuilder()
    i32 := b.TypeInt(32, true)
    c1 := b.ConstantInt(i32, 1)
    c2 := b.ConstantInt(i32, 2)
    pfn := b.TypePointer(spirv.StorageFunction, i32)
    pout := b.TypePointer(spirv.StorageOutput, i32)
    out := b.GlobalVariable(pout, spirv.StorageOutput)

    fn := b.NewFunction(b.TypeVoid())
    b.NewBlock()

    /* dead stands alone, live flows to the output variable */
    dead := b.LocalVariable(pfn)
    live := b.LocalVariable(pfn)
    b.Store(dead, c1)
    b.Store(live, c2)
    v := b.Load(i32, live)
    junk := b.IAdd(i32, c1, c2)
    b.Store(out, v)
    b.Return()

    ctx := NewContext(b.Module())
    require.True(t, AggressiveDCE{}.Apply(ctx))

    require.False(t, hasResult(fn, dead))
    require.False(t, hasResult(fn, junk))
    require.True(t, hasResult(fn, live))
    require.True(t, hasResult(fn, v))

    /* one store feeds the local, one publishes the result */
    require.Equal(t, 2, countOps(fn, spirv.OpStore))
    require.Equal(t, 1, countOps(fn, spirv.OpLoad))

    /* a second sweep is a no-op */
    ctx.Invalidate()
    require.False(t, AggressiveDCE{}.Apply(ctx))
}

func TestADCE_KeepsControlDependencies(t *testing.T) {
    lf := buildCountingLoop(false)
    n := lf.b.Load(lf.i32, lf.nvar)
    junk := lf.b.IAdd(lf.i32, n, lf.c1)
    lf.seal()

    ctx := NewContext(lf.mod)
    require.True(t, AggressiveDCE{}.Apply(ctx))

    /* the unused add goes, the loop skeleton stays: the phi feeds the
     * exit condition and the condition feeds the branch */
    require.False(t, hasResult(lf.fn, junk))
    require.True(t, hasResult(lf.fn, lf.phi))
    require.Equal(t, 1, countOps(lf.fn, spirv.OpPhi))
    require.Equal(t, 1, countOps(lf.fn, spirv.OpSLessThan))
    require.Equal(t, 1, countOps(lf.fn, spirv.OpIAdd))
}
