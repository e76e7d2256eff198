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

func buildLocalArrayAccess() (*spirv.Module, *spirv.Function, spirv.ID, spirv.ID) {
    b := spirv.CreateBuilder()
    i32 := b.TypeInt(32, true)
    c0 := b.ConstantInt(i32, 0)
    c4 := b.ConstantInt(i32, 4)
    c7 := b.ConstantInt(i32, 7)
    arr := b.TypeArray(i32, c4)
    parr := b.TypePointer(spirv.StorageFunction, arr)
    pel := b.TypePointer(spirv.StorageFunction, i32)
    pout := b.TypePointer(spirv.StorageOutput, i32)
    out := b.GlobalVariable(pout, spirv.StorageOutput)

    fn := b.NewFunction(b.TypeVoid())
    b.NewBlock()
    v := b.LocalVariable(parr)
    st := b.AccessChain(pel, v, c0)
    b.Store(st, c7)
    ld := b.AccessChain(pel, v, c0)
    x := b.Load(i32, ld)
    b.Store(out, x)
    b.Return()
    return b.Module(), fn, v, x
}

func TestAccessChainConvert_LowersConstantIndices(t *testing.T) {
    mod, fn, _, x := buildLocalArrayAccess()
    ctx := NewContext(mod)
    require.True(t, LocalAccessChainConvert{}.Apply(ctx))
    ctx.Invalidate()

    /* the element store became load-insert-store on the whole array,
     * the element load became load-extract */
    require.Equal(t, 1, countOps(fn, spirv.OpCompositeInsert))
    require.Equal(t, 1, countOps(fn, spirv.OpCompositeExtract))
    require.Equal(t, 2, countOps(fn, spirv.OpLoad))

    /* the extract keeps the original result id, uses stay intact */
    du := ctx.DefUse()
    require.Equal(t, spirv.OpCompositeExtract, du.GetDef(x).Op)
    require.Len(t, du.Users(x), 1)

    /* no load or store goes through an access chain anymore */
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            if p.Op == spirv.OpLoad || p.Op == spirv.OpStore {
                require.NotEqual(t, spirv.OpAccessChain, du.GetDef(p.In[0]).Op)
            }
        }
    }
}

func TestAccessChainConvert_SkipsDynamicIndices(t *testing.T) {
    b := spirv.CreateBuilder()
    i32 := b.TypeInt(32, true)
    c4 := b.ConstantInt(i32, 4)
    c7 := b.ConstantInt(i32, 7)
    arr := b.TypeArray(i32, c4)
    parr := b.TypePointer(spirv.StorageFunction, arr)
    pel := b.TypePointer(spirv.StorageFunction, i32)
    pin := b.TypePointer(spirv.StorageInput, i32)
    in := b.GlobalVariable(pin, spirv.StorageInput)

    b.NewFunction(b.TypeVoid())
    b.NewBlock()
    v := b.LocalVariable(parr)
    i := b.Load(i32, in)
    ac := b.AccessChain(pel, v, i)
    b.Store(ac, c7)
    b.Return()

    ctx := NewContext(b.Module())
    require.False(t, LocalAccessChainConvert{}.Apply(ctx))
}

func TestRunPasses_Pipeline(t *testing.T) {
    mod, fn, _, _ := buildLocalArrayAccess()
    ctx := NewContext(mod)
    require.True(t, RunPasses(ctx))

    /* the access chains lower, then DCE clears the orphaned chains */
    require.Equal(t, 0, countOps(fn, spirv.OpAccessChain))
    require.Equal(t, 1, countOps(fn, spirv.OpCompositeExtract))

    /* the published store survives end to end */
    require.Equal(t, 2, countOps(fn, spirv.OpStore))
}
