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
    `fmt`
    `io`

    `github.com/oleiade/lane`
)

func (self *SENode) dotLabel() string {
    switch self.kind {
        case SEConstant     : return fmt.Sprintf("Constant %d", self.val)
        case SEValueUnknown : return fmt.Sprintf("ValueUnknown %%%d", uint32(self.src))
        default             : return self.kind.String()
    }
}

// DumpDot writes the expression DAG rooted at the node in Graphviz
// format. Shared subexpressions appear once.
func (self *SENode) DumpDot(w io.Writer) {
    q := lane.NewQueue()
    seen := map[*SENode]bool { self: true }
    fmt.Fprintln(w, "digraph senode {")
    q.Enqueue(self)
    for !q.Empty() {
        p := q.Dequeue().(*SENode)
        fmt.Fprintf(w, "    n%p [label=%q]\n", p, p.dotLabel())
        for _, k := range p.kids {
            fmt.Fprintf(w, "    n%p -> n%p\n", p, k)
            if !seen[k] {
                seen[k] = true
                q.Enqueue(k)
            }
        }
    }
    fmt.Fprintln(w, "}")
}
