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

package spirv

import (
    `testing`

    `github.com/stretchr/testify/require`
)

func TestBuilder_TypesAndConstantsIntern(t *testing.T) {
    b := CreateBuilder()
    require.Equal(t, b.TypeInt(32, true), b.TypeInt(32, true))
    require.NotEqual(t, b.TypeInt(32, true), b.TypeInt(32, false))
    require.NotEqual(t, b.TypeInt(32, true), b.TypeInt(16, true))

    i32 := b.TypeInt(32, true)
    require.Equal(t, b.ConstantInt(i32, 5), b.ConstantInt(i32, 5))
    require.NotEqual(t, b.ConstantInt(i32, 5), b.ConstantInt(i32, 6))

    /* negative constants sign-extend back out of the word form */
    c := b.Module().Global(b.ConstantInt(i32, -3))
    require.Equal(t, int64(-3), c.ConstantValue())
}

func TestBuilder_BlockStructure(t *testing.T) {
    b := CreateBuilder()
    i32 := b.TypeInt(32, true)
    c0 := b.ConstantInt(i32, 0)
    c9 := b.ConstantInt(i32, 9)

    fn := b.NewFunction(b.TypeVoid())
    e := b.NewBlock()
    h := b.NewBlock()
    x := b.NewBlock()

    b.SetBlock(e)
    b.Branch(h)

    b.SetBlock(h)
    phi := b.Phi(i32, c0, e.Id, c9, x.Id)
    lt := b.SLessThan(phi, c9)
    b.BranchCond(lt, x, e)

    b.SetBlock(x)
    b.Return()

    require.Same(t, e, fn.Entry())
    require.Same(t, h, fn.Block(h.Id))
    require.Equal(t, []ID { h.Id }, e.Succs())
    require.Equal(t, []ID { x.Id, e.Id }, h.Succs())
    require.Len(t, h.Phis(), 1)
    require.Empty(t, x.Phis())
    require.Equal(t, OpBranchConditional, h.Term().Op)
    require.Equal(t, OpReturn, x.Term().Op)
}

func TestBasicBlock_Mutation(t *testing.T) {
    b := CreateBuilder()
    i32 := b.TypeInt(32, true)
    c1 := b.ConstantInt(i32, 1)

    b.NewFunction(b.TypeVoid())
    e := b.NewBlock()
    v := b.IAdd(i32, c1, c1)
    b.Return()

    p := e.Ins[0]
    require.Equal(t, v, p.Result)
    require.True(t, e.Remove(p))
    require.False(t, e.Remove(p))
    require.Nil(t, p.Block())

    e.AppendBeforeTerm(p)
    require.Same(t, e, p.Block())
    require.Equal(t, p, e.Ins[0])
    require.Equal(t, OpReturn, e.Term().Op)
}
