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

// LocalAccessChainConvert lowers constant-index access chains on
// function-local variables into whole-value loads paired with
// composite extracts and inserts. The chains themselves become dead
// and are left for DCE.
type LocalAccessChainConvert struct{}

func (LocalAccessChainConvert) Apply(ctx *Context) bool {
    changed := false
    for _, fn := range ctx.Module.Functions {
        if convertFunction(ctx, fn) {
            changed = true
        }
    }
    return changed
}

func convertFunction(ctx *Context, fn *spirv.Function) bool {
    du := ctx.DefUse()
    targets := findTargetVars(du, fn)
    if len(targets) == 0 {
        return false
    }

    changed := false
    for _, bb := range fn.Blocks {
        out := make([]*spirv.Instruction, 0, len(bb.Ins))
        for _, p := range bb.Ins {
            switch {
                case p.Op == spirv.OpLoad && chainOnTarget(du, targets, p.In[0]): {
                    out = append(out, convertLoad(ctx, du, bb, p)...)
                    changed = true
                }
                case p.Op == spirv.OpStore && chainOnTarget(du, targets, p.In[0]): {
                    out = append(out, convertStore(ctx, du, bb, p)...)
                    changed = true
                }
                default: {
                    out = append(out, p)
                }
            }
        }
        bb.Ins = out
    }
    return changed
}

// findTargetVars collects the function-local variables whose every
// use is a direct load or store, or a single constant-index access
// chain used only by loads and stores.
func findTargetVars(du *DefUseManager, fn *spirv.Function) map[spirv.ID]struct{} {
    r := make(map[spirv.ID]struct{})
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            if p.Op != spirv.OpVariable || spirv.StorageClass(p.In[0]) != spirv.StorageFunction {
                continue
            }
            if supportedVarUses(du, p.Result) {
                r[p.Result] = struct{}{}
            }
        }
    }
    return r
}

func supportedVarUses(du *DefUseManager, v spirv.ID) bool {
    return du.WhileEachUser(v, func(u *spirv.Instruction) bool {
        switch u.Op {
            case spirv.OpLoad: {
                return true
            }
            case spirv.OpStore: {
                return u.In[0] == v
            }
            case spirv.OpAccessChain: {
                return u.In[0] == v && constantIndices(du, u) && supportedChainUses(du, u.Result)
            }
            default: {
                return false
            }
        }
    })
}

func supportedChainUses(du *DefUseManager, ac spirv.ID) bool {
    return du.WhileEachUser(ac, func(u *spirv.Instruction) bool {
        switch u.Op {
            case spirv.OpLoad  : return true
            case spirv.OpStore : return u.In[0] == ac
            default            : return false
        }
    })
}

func constantIndices(du *DefUseManager, ac *spirv.Instruction) bool {
    for _, id := range ac.In[1:] {
        if d := du.GetDef(id); d == nil || d.Op != spirv.OpConstant {
            return false
        }
    }
    return true
}

// chainOnTarget reports whether ptr is an access chain rooted at a
// convertible variable. Direct loads and stores of the variable stay
// as they are.
func chainOnTarget(du *DefUseManager, targets map[spirv.ID]struct{}, ptr spirv.ID) bool {
    d := du.GetDef(ptr)
    if d == nil || d.Op != spirv.OpAccessChain {
        return false
    }
    _, ok := targets[d.In[0]]
    return ok
}

func chainLiterals(du *DefUseManager, ac *spirv.Instruction) []spirv.ID {
    r := make([]spirv.ID, 0, len(ac.In) - 1)
    for _, id := range ac.In[1:] {
        r = append(r, spirv.ID(uint32(du.GetDef(id).ConstantValue())))
    }
    return r
}

// pointeeType returns the pointee of a pointer type id.
func pointeeType(du *DefUseManager, ptrTy spirv.ID) spirv.ID {
    return du.GetDef(ptrTy).In[1]
}

// convertLoad rewrites `load (chain v idx...)` into a load of the
// whole variable and an extract. The extract reuses the original
// result id, so no uses need rewriting.
func convertLoad(ctx *Context, du *DefUseManager, bb *spirv.BasicBlock, p *spirv.Instruction) []*spirv.Instruction {
    ac := du.GetDef(p.In[0])
    ld := &spirv.Instruction {
        Op     : spirv.OpLoad,
        Type   : pointeeType(du, du.GetDef(ac.In[0]).Type),
        Result : ctx.Module.TakeNextId(),
        In     : []spirv.ID { ac.In[0] },
    }
    ext := &spirv.Instruction {
        Op     : spirv.OpCompositeExtract,
        Type   : p.Type,
        Result : p.Result,
        In     : append([]spirv.ID { ld.Result }, chainLiterals(du, ac)...),
    }
    return relink(bb, ld, ext)
}

// convertStore rewrites `store (chain v idx...) val` into a load of
// the whole variable, an insert, and a store back.
func convertStore(ctx *Context, du *DefUseManager, bb *spirv.BasicBlock, p *spirv.Instruction) []*spirv.Instruction {
    ac := du.GetDef(p.In[0])
    vty := pointeeType(du, du.GetDef(ac.In[0]).Type)
    ld := &spirv.Instruction {
        Op     : spirv.OpLoad,
        Type   : vty,
        Result : ctx.Module.TakeNextId(),
        In     : []spirv.ID { ac.In[0] },
    }
    ins := &spirv.Instruction {
        Op     : spirv.OpCompositeInsert,
        Type   : vty,
        Result : ctx.Module.TakeNextId(),
        In     : append([]spirv.ID { p.In[1], ld.Result }, chainLiterals(du, ac)...),
    }
    st := &spirv.Instruction {
        Op : spirv.OpStore,
        In : []spirv.ID { ac.In[0], ins.Result },
    }
    return relink(bb, ld, ins, st)
}

func relink(bb *spirv.BasicBlock, ins ...*spirv.Instruction) []*spirv.Instruction {
    for _, p := range ins {
        bb.Adopt(p)
    }
    return ins
}
