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
)

// LoopInvariantCodeMotion hoists loop-invariant integer arithmetic
// to loop preheaders. Scalar evolution decides invariance, so values
// that merely look variant syntactically still hoist when their
// closed form is invariant.
type LoopInvariantCodeMotion struct{}

func (LoopInvariantCodeMotion) Apply(ctx *Context) bool {
    changed := false
    for _, fn := range ctx.Module.Functions {
        for _, lp := range ctx.LoopDescriptor(fn).RootLoops() {
            if hoistLoop(ctx, fn, lp) {
                changed = true
            }
        }
    }
    return changed
}

func hoistLoop(ctx *Context, fn *spirv.Function, lp *Loop) bool {
    changed := false

    /* inner loops first, their preheaders are in our body */
    for _, sub := range lp.Nested {
        if hoistLoop(ctx, fn, sub) {
            changed = true
        }
    }
    if lp.Preheader == nil {
        return changed
    }

    /* candidates whose closed form does not vary with this loop */
    se := NewScalarEvolutionAnalysis(ctx, fn)
    cand := []*spirv.Instruction(nil)
    for _, bb := range fn.Blocks {
        if !lp.Contains(bb.Id) {
            continue
        }
        for _, p := range bb.Ins {
            if !analyzableArith(p.Op) {
                continue
            }
            if n := se.SimplifyExpression(se.AnalyzeInstruction(p)); !n.ContainsCanNotCompute() && se.IsLoopInvariant(n, lp) {
                cand = append(cand, p)
            }
        }
    }

    /* move candidates whose operands are all defined outside the
     * loop, repeating so chains of invariants hoist in order */
    du := ctx.DefUse()
    moved := true
    for moved {
        moved = false
        rest := cand[:0]
        for _, p := range cand {
            if operandsOutside(du, lp, p) {
                p.Block().Remove(p)
                lp.Preheader.AppendBeforeTerm(p)
                changed = true
                moved = true
            } else {
                rest = append(rest, p)
            }
        }
        cand = rest
    }
    return changed
}

func analyzableArith(op spirv.Opcode) bool {
    switch op {
        case spirv.OpIAdd    : fallthrough
        case spirv.OpISub    : fallthrough
        case spirv.OpIMul    : fallthrough
        case spirv.OpSNegate : return true
        default              : return false
    }
}

func operandsOutside(du *DefUseManager, lp *Loop, p *spirv.Instruction) bool {
    ok := true
    forEachIdOperand(p, func(id spirv.ID) {
        if d := du.GetDef(id); d != nil && d.Block() != nil && lp.Contains(d.Block().Id) {
            ok = false
        }
    })
    return ok
}
