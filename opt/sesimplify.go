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
    `sort`

    `github.com/oleiade/lane`
)

// _Part is one addend of a sum, a node scaled by an integer
// multiplicity.
type _Part struct {
    node *SENode
    mult int64
}

// _TermSum accumulates a flattened sum as a constant plus signed
// multiplicities of canonical terms. Insertion order of first
// appearance is kept so assembly is deterministic.
type _TermSum struct {
    se    *ScalarEvolutionAnalysis
    con   int64
    cnc   bool
    order []*SENode
    terms map[*SENode]int64
}

func (self *_TermSum) term(p *SENode, k int64) {
    if _, ok := self.terms[p]; !ok {
        self.order = append(self.order, p)
    }
    self.terms[p] += k
}

// add folds node p scaled by k into the accumulator. p must already
// be in canonical form, so the descent depth is bounded.
func (self *_TermSum) add(p *SENode, k int64) {
    if k == 0 {
        return
    }
    switch p.kind {
        case SECanNotCompute: {
            self.cnc = true
        }
        case SEConstant: {
            self.con = wrap32(self.con + wrap32(k * p.val))
        }
        case SEAdd: {
            for _, c := range p.kids {
                self.add(c, k)
            }
        }
        case SENegative: {
            self.add(p.kids[0], -k)
        }
        case SEMultiply: {
            if p.kids[0].kind != SEConstant {
                self.term(p, k)
            } else if rest := p.kids[1:]; len(rest) == 1 {
                self.term(rest[0], wrap32(k * p.kids[0].val))
            } else {
                self.term(self.se.store.multiply(rest), wrap32(k * p.kids[0].val))
            }
        }
        default: {
            self.term(p, k)
        }
    }
}

func sortNodes(kids []*SENode) {
    sort.SliceStable(kids, func(i int, j int) bool {
        a, b := kids[i], kids[j]
        if a.kind != b.kind {
            return a.kind < b.kind
        } else {
            return a.key < b.key
        }
    })
}

// SimplifyExpression rewrites node into canonical form. Canonical
// nodes are fixed points: simplifying a result returns the result
// itself.
func (self *ScalarEvolutionAnalysis) SimplifyExpression(node *SENode) *SENode {
    if node == nil {
        return self.store.cantCompute()
    }
    if r, ok := self.simpl[node]; ok {
        return r
    }

    /* post-order over the DAG, children rewrite before parents */
    s := lane.NewStack()
    s.Push(node)
    for !s.Empty() {
        p := s.Head().(*SENode)
        if _, ok := self.simpl[p]; ok {
            s.Pop()
            continue
        }
        ready := true
        for _, k := range p.kids {
            if _, ok := self.simpl[k]; !ok {
                ready = false
                s.Push(k)
            }
        }
        if ready {
            s.Pop()
            r := self.rewrite(p)
            self.simpl[p] = r
            self.simpl[r] = r
        }
    }
    return self.simpl[node]
}

func (self *ScalarEvolutionAnalysis) rewrite(p *SENode) *SENode {
    switch p.kind {
        case SENegative: {
            return self.negCanonical(self.simpl[p.kids[0]])
        }
        case SEAdd: {
            parts := make([]_Part, 0, len(p.kids))
            for _, c := range p.kids {
                parts = append(parts, _Part { self.simpl[c], 1 })
            }
            return self.sumParts(parts)
        }
        case SEMultiply: {
            kids := make([]*SENode, 0, len(p.kids))
            for _, c := range p.kids {
                kids = append(kids, self.simpl[c])
            }
            return self.mulCanonical(kids)
        }
        case SERecurrentAddExpr: {
            return self.recCanonical(p.loop, self.simpl[p.kids[0]], self.simpl[p.kids[1]])
        }
        default: {
            return p
        }
    }
}

// recCanonical builds a recurrence from canonical children. A zero
// step degenerates to the offset, an unresolvable child poisons the
// node.
func (self *ScalarEvolutionAnalysis) recCanonical(lp *Loop, coeff *SENode, off *SENode) *SENode {
    if coeff.kind == SECanNotCompute || off.kind == SECanNotCompute {
        return self.store.cantCompute()
    }
    if coeff.kind == SEConstant && coeff.val == 0 {
        return off
    }
    return self.store.recurrent(lp, coeff, off)
}

// negCanonical negates a canonical node. The Negative wrapper is
// reserved for value unknowns and constant-free products, every other
// kind absorbs the sign.
func (self *ScalarEvolutionAnalysis) negCanonical(p *SENode) *SENode {
    switch {
        case p.kind == SECanNotCompute                              : return p
        case p.kind == SEConstant                                   : return self.store.constant(wrap32(-p.val))
        case p.kind == SENegative                                   : return p.kids[0]
        case p.kind == SEValueUnknown                               : return self.store.negative(p)
        case p.kind == SEMultiply && p.kids[0].kind != SEConstant   : return self.store.negative(p)
        default                                                     : return self.sumParts([]_Part {{ p, -1 }})
    }
}

// mulCanonical builds a product from canonical factors: constants
// fold together, nested products and signs flatten, and a constant
// factor distributes over a recurrence.
func (self *ScalarEvolutionAnalysis) mulCanonical(kids []*SENode) *SENode {
    k := int64(1)
    flat := []*SENode(nil)

    s := make([]*SENode, len(kids))
    copy(s, kids)
    for len(s) != 0 {
        c := s[len(s) - 1]
        s = s[:len(s) - 1]
        switch c.kind {
            case SECanNotCompute: {
                return self.store.cantCompute()
            }
            case SEConstant: {
                k = wrap32(k * c.val)
            }
            case SENegative: {
                k = -k
                s = append(s, c.kids[0])
            }
            case SEMultiply: {
                s = append(s, c.kids...)
            }
            default: {
                flat = append(flat, c)
            }
        }
    }

    /* all-constant product, or annihilation by zero */
    if len(flat) == 0 || k == 0 {
        return self.store.constant(wrap32(k))
    }

    /* constant times recurrence distributes into the recurrence */
    if len(flat) == 1 && flat[0].kind == SERecurrentAddExpr && k != 1 {
        return self.sumParts([]_Part {{ flat[0], k }})
    }

    sortNodes(flat)
    switch {
        case k == 1 && len(flat) == 1 : return flat[0]
        case k == 1                   : return self.store.multiply(flat)
        case k == -1 && len(flat) == 1: return self.negCanonical(flat[0])
        case k == -1                  : return self.negCanonical(self.store.multiply(flat))
        default                       : return self.store.multiply(append([]*SENode { self.store.constant(k) }, flat...))
    }
}

// sumParts canonicalizes a sum of scaled canonical nodes. Constants
// fold, equal terms merge multiplicities, recurrences over the same
// loop merge pairwise, and when exactly one recurrence remains its
// loop-invariant siblings fold into the offset.
func (self *ScalarEvolutionAnalysis) sumParts(parts []_Part) *SENode {
    acc := _TermSum {
        se    : self,
        terms : make(map[*SENode]int64),
    }
    for _, e := range parts {
        acc.add(e.node, e.mult)
    }
    if acc.cnc {
        return self.store.cantCompute()
    }

    /* split surviving terms into per-loop recurrence groups and plain
     * addends */
    lps := []*Loop(nil)
    grp := make(map[*Loop][]_Part)
    plain := []_Part(nil)
    for _, n := range acc.order {
        k := acc.terms[n]
        if k == 0 {
            continue
        }
        if n.kind != SERecurrentAddExpr {
            plain = append(plain, _Part { n, k })
        } else {
            if _, ok := grp[n.loop]; !ok {
                lps = append(lps, n.loop)
            }
            grp[n.loop] = append(grp[n.loop], _Part { n, k })
        }
    }

    /* merge each loop's recurrences coefficient-wise and offset-wise */
    recs := []*SENode(nil)
    extra := []_Part(nil)
    for _, lp := range lps {
        g := grp[lp]
        var merged *SENode
        if len(g) == 1 && g[0].mult == 1 {
            merged = g[0].node
        } else {
            cp := make([]_Part, 0, len(g))
            op := make([]_Part, 0, len(g))
            for _, e := range g {
                cp = append(cp, _Part { e.node.kids[0], e.mult })
                op = append(op, _Part { e.node.kids[1], e.mult })
            }
            merged = self.recCanonical(lp, self.sumParts(cp), self.sumParts(op))
        }
        switch {
            case merged.kind == SECanNotCompute    : return merged
            case merged.kind == SERecurrentAddExpr : recs = append(recs, merged)
            default                                : extra = append(extra, _Part { merged, 1 })
        }
    }

    /* a collapsed recurrence may cancel against the remaining terms,
     * rerun with the collapse expanded into plain addends */
    if len(extra) != 0 {
        re := append(plain, extra...)
        for _, r := range recs {
            re = append(re, _Part { r, 1 })
        }
        if acc.con != 0 {
            re = append(re, _Part { self.store.constant(acc.con), 1 })
        }
        return self.sumParts(re)
    }

    /* a lone recurrence absorbs its loop-invariant siblings and the
     * constant into the offset */
    if len(recs) == 1 {
        r := recs[0]
        inv := []_Part(nil)
        vp := []_Part(nil)
        for _, e := range plain {
            if e.node.ContainsRecurrence(r.loop) {
                vp = append(vp, e)
            } else {
                inv = append(inv, e)
            }
        }
        if len(inv) != 0 || acc.con != 0 {
            offp := append(inv, _Part { r.kids[1], 1 })
            if acc.con != 0 {
                offp = append(offp, _Part { self.store.constant(acc.con), 1 })
            }
            r = self.recCanonical(r.loop, r.kids[0], self.sumParts(offp))
        }
        if len(vp) == 0 {
            return r
        }
        kids := []*SENode { r }
        for _, e := range vp {
            kids = append(kids, self.expandPart(e))
        }
        sortNodes(kids)
        return self.store.add(kids)
    }

    /* generic assembly */
    kids := []*SENode(nil)
    for _, r := range recs {
        kids = append(kids, r)
    }
    for _, e := range plain {
        kids = append(kids, self.expandPart(e))
    }
    if acc.con != 0 || len(kids) == 0 {
        kids = append(kids, self.store.constant(acc.con))
    }
    if len(kids) == 1 {
        return kids[0]
    }
    sortNodes(kids)
    return self.store.add(kids)
}

// expandPart rebuilds one scaled term as a node.
func (self *ScalarEvolutionAnalysis) expandPart(e _Part) *SENode {
    switch {
        case e.mult == 1  : return e.node
        case e.mult == -1 : return self.negCanonical(e.node)
        default           : return self.mulCanonical([]*SENode { self.store.constant(e.mult), e.node })
    }
}
