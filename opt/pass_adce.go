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

// AggressiveDCE removes instructions whose results never reach an
// observable effect. Liveness seeds at control flow and at stores
// that can be observed, then flows backwards through operands. A
// store to a function-local variable that is never loaded is itself
// dead, which in turn kills the variable and its access chains.
type AggressiveDCE struct{}

func (AggressiveDCE) Apply(ctx *Context) bool {
    changed := false
    for _, fn := range ctx.Module.Functions {
        if sweepFunction(ctx, fn) {
            changed = true
        }
    }
    return changed
}

func sweepFunction(ctx *Context, fn *spirv.Function) bool {
    du := ctx.DefUse()
    live := make(map[*spirv.Instruction]struct{})
    q := lane.NewQueue()

    mark := func(id spirv.ID) {
        if d := du.GetDef(id); d != nil {
            if _, ok := live[d]; !ok {
                live[d] = struct{}{}
                q.Enqueue(d)
            }
        }
    }

    /* locals with at least one observing load */
    loaded := make(map[spirv.ID]struct{})
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            if p.Op == spirv.OpLoad {
                if v, _ := rootPointer(du, p.In[0]); v != 0 {
                    loaded[v] = struct{}{}
                }
            }
        }
    }

    /* seed: control flow keeps its operands, stores keep theirs
     * unless the target is a local nobody reads */
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            seed := false
            switch {
                case p.Op == spirv.OpStore        : seed = storeObservable(du, fn, p, loaded)
                case p.Op == spirv.OpFunctionCall : seed = true
                case p.Result == 0                : forEachIdOperand(p, mark)
            }
            if seed {
                live[p] = struct{}{}
                q.Enqueue(p)
            }
        }
    }

    /* backward propagation */
    for !q.Empty() {
        p := q.Dequeue().(*spirv.Instruction)
        forEachIdOperand(p, mark)
        if p.Op == spirv.OpStore || p.Op == spirv.OpLoad || p.Op == spirv.OpAccessChain {
            /* keep the whole pointer chain of a live access */
            mark(p.In[0])
        }
    }

    /* sweep */
    changed := false
    for _, bb := range fn.Blocks {
        kept := bb.Ins[:0]
        for _, p := range bb.Ins {
            if _, ok := live[p]; ok || !removable(p) {
                kept = append(kept, p)
            } else {
                changed = true
            }
        }
        bb.Ins = kept
    }

    return changed
}

// storeObservable reports whether the store can be seen after the
// function returns: anything but a store to a never-loaded local.
func storeObservable(du *DefUseManager, fn *spirv.Function, p *spirv.Instruction, loaded map[spirv.ID]struct{}) bool {
    v, _ := rootPointer(du, p.In[0])
    if v == 0 {
        return true
    }
    d := du.GetDef(v)
    if d == nil || !isLocalVar(fn, d) {
        return true
    }
    _, ok := loaded[v]
    return ok
}

func isLocalVar(fn *spirv.Function, d *spirv.Instruction) bool {
    return d.Op == spirv.OpVariable && d.Block() != nil && d.Block().Function() == fn
}

// removable reports whether p may be swept when dead. Labels, merges
// and terminators shape the CFG and always stay.
func removable(p *spirv.Instruction) bool {
    switch {
        case p.Op == spirv.OpStore    : return true
        case p.Op == spirv.OpLoad     : return true
        case p.Op == spirv.OpVariable : return true
        case p.Op == spirv.OpPhi      : return true
        case p.Op == spirv.OpUndef    : return true
        case p.Result != 0            : return p.Op.IsPure()
        default                       : return false
    }
}
