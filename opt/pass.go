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

// Pass is a module transformation. Apply reports whether it changed
// anything.
type Pass interface {
    Apply(ctx *Context) bool
}

type _PassDescriptor struct {
    name string
    pass Pass
}

// The registered passes run in order: memory accesses lower to value
// form first, invariants hoist next, and dead code removal sweeps up
// whatever the first two orphaned.
var _Passes = [...]_PassDescriptor {
    { name: "local-access-chain-convert" , pass: LocalAccessChainConvert{} },
    { name: "licm"                       , pass: LoopInvariantCodeMotion{} },
    { name: "adce"                       , pass: AggressiveDCE{} },
}

// RunPasses applies every registered pass once, in registration
// order, and reports whether the module changed.
func RunPasses(ctx *Context) bool {
    changed := false
    for _, d := range _Passes {
        if d.pass.Apply(ctx) {
            changed = true
            ctx.Invalidate()
        }
    }
    return changed
}
