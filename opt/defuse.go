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

// forEachIdOperand visits the in-operands of p that are value ids,
// skipping literal words and block labels.
func forEachIdOperand(p *spirv.Instruction, fn func(spirv.ID)) {
    switch p.Op {
        case spirv.OpConstant       : return
        case spirv.OpTypeVoid       : return
        case spirv.OpTypeBool       : return
        case spirv.OpTypeInt        : return
        case spirv.OpTypeFloat      : return
        case spirv.OpVariable       : return
        case spirv.OpLabel          : return
        case spirv.OpBranch         : return
        case spirv.OpLoopMerge      : return
        case spirv.OpSelectionMerge : return
    }
    switch p.Op {
        case spirv.OpTypePointer: {
            fn(p.In[1])
        }
        case spirv.OpTypeArray: {
            fn(p.In[0])
            fn(p.In[1])
        }
        case spirv.OpPhi: {
            for i := 0; i < len(p.In); i += 2 {
                fn(p.In[i])
            }
        }
        case spirv.OpBranchConditional: {
            fn(p.In[0])
        }
        case spirv.OpSwitch: {
            fn(p.In[0])
        }
        case spirv.OpCompositeExtract: {
            fn(p.In[0])
        }
        case spirv.OpCompositeInsert: {
            fn(p.In[0])
            fn(p.In[1])
        }
        default: {
            for _, v := range p.In {
                fn(v)
            }
        }
    }
}

// DefUseManager maps result ids to their defining instruction and to
// the instructions using them. It reflects one snapshot of the module;
// reconstruct it after structural mutation.
type DefUseManager struct {
    defs map[spirv.ID]*spirv.Instruction
    uses map[spirv.ID][]*spirv.Instruction
}

func newDefUseManager(m *spirv.Module) *DefUseManager {
    r := &DefUseManager {
        defs: make(map[spirv.ID]*spirv.Instruction),
        uses: make(map[spirv.ID][]*spirv.Instruction),
    }

    /* module-scope instructions */
    for _, p := range m.Globals {
        r.analyze(p)
    }

    /* function bodies */
    for _, fn := range m.Functions {
        for _, bb := range fn.Blocks {
            for _, p := range bb.Ins {
                r.analyze(p)
            }
        }
    }
    return r
}

func (self *DefUseManager) analyze(p *spirv.Instruction) {
    if p.Result != 0 {
        self.defs[p.Result] = p
    }
    forEachIdOperand(p, func(id spirv.ID) {
        self.uses[id] = append(self.uses[id], p)
    })
}

// GetDef returns the defining instruction of id, or nil.
func (self *DefUseManager) GetDef(id spirv.ID) *spirv.Instruction {
    return self.defs[id]
}

// Users returns every instruction with id as an in-operand.
func (self *DefUseManager) Users(id spirv.ID) []*spirv.Instruction {
    return self.uses[id]
}

// WhileEachUser calls fn for every user of id until fn returns false.
// It reports whether all users were visited.
func (self *DefUseManager) WhileEachUser(id spirv.ID, fn func(*spirv.Instruction) bool) bool {
    for _, p := range self.uses[id] {
        if !fn(p) {
            return false
        }
    }
    return true
}

// rootPointer chases a pointer operand through access chains and
// copies back to the underlying variable. It returns the variable id
// and the immediate pointer-producing instruction, or 0 if the chain
// does not bottom out at an OpVariable.
func rootPointer(du *DefUseManager, id spirv.ID) (spirv.ID, *spirv.Instruction) {
    p := du.GetDef(id)
    r := p

    for p != nil {
        switch p.Op {
            case spirv.OpVariable: {
                return p.Result, r
            }
            case spirv.OpAccessChain: {
                p = du.GetDef(p.In[0])
            }
            case spirv.OpCopyObject: {
                p = du.GetDef(p.In[0])
            }
            default: {
                return 0, r
            }
        }
    }
    return 0, r
}
