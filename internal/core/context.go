package core

// ContextPath is an ordered, possibly empty tuple of Contracts. It is read
// from the recipe's own output contract toward the root target: "this
// recipe is preferred when the planning path from the current node to the
// target traverses c1, then c2, ..., then ck, in that order, possibly with
// gaps." An empty path matches everywhere with near-zero weight.
type ContextPath []Contract

// Equal reports structural equality between two context paths.
func (p ContextPath) Equal(other ContextPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ContractSpec is a registration-time context specifier. A position in a
// recipe's context can be:
//   - a single AssetType,
//   - a set of AssetTypes (choice at that position),
//   - a Contract (AssetType + specific key),
//   - a set of Contracts,
//
// and a full context is a finite sequence of such positions, expanded into
// the set-product of concrete ContextPaths. ContractSpec models one
// position; use Seq to build a multi-position spec.
type ContractSpec struct {
	contracts []Contract
}

// AssetSpec builds a single-AssetType, absent-key position.
func AssetSpec(t AssetType) ContractSpec {
	return ContractSpec{contracts: []Contract{{Type: t}}}
}

// AssetSet builds a choice-of-AssetTypes position, each with an absent key.
func AssetSet(types ...AssetType) ContractSpec {
	cs := make([]Contract, len(types))
	for i, t := range types {
		cs[i] = Contract{Type: t}
	}
	return ContractSpec{contracts: cs}
}

// ContractOf builds a single fully-specified Contract position.
func ContractOf(c Contract) ContractSpec {
	return ContractSpec{contracts: []Contract{c}}
}

// ContractSet builds a choice-of-Contracts position.
func ContractSet(cs ...Contract) ContractSpec {
	return ContractSpec{contracts: append([]Contract(nil), cs...)}
}

// Seq is a sequence of positions describing a full context; each element
// expands independently and the results are combined by set-product.
type Seq []ContractSpec

// ExpandContexts computes the set-product of concrete ContextPaths
// described by spec. An empty spec yields a single empty ContextPath.
// Fails with BadContractSpecError if any position is empty.
func ExpandContexts(spec Seq) ([]ContextPath, error) {
	if len(spec) == 0 {
		return []ContextPath{{}}, nil
	}
	paths := []ContextPath{{}}
	for _, pos := range spec {
		if len(pos.contracts) == 0 {
			return nil, &BadContractSpecError{Spec: pos}
		}
		var next []ContextPath
		for _, p := range paths {
			for _, c := range pos.contracts {
				extended := make(ContextPath, len(p)+1)
				copy(extended, p)
				extended[len(p)] = c
				next = append(next, extended)
			}
		}
		paths = next
	}
	return paths, nil
}
