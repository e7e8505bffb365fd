package worlddata

import "strconv"

// EvalGate evaluates an exit gate expression against a character's quest
// map (spec.md §4.2.1, invariant 6).
//
// Two forms:
//   - bare key: truthy if quest[key] is not "", "0", or "false"; a value
//     that parses as a non-zero integer is also truthy.
//   - "lhs OP rhs" where OP is one of >=, <=, !=, ==, >, <, = (checked in
//     that multi-char-first order). If both sides parse as integers the
//     comparison is numeric; otherwise only ==/!= are defined (string
//     compare), and ordered comparisons are false.
func EvalGate(expr string, quest map[string]string) bool {
	if lhs, op, rhs, ok := splitGateOp(expr); ok {
		return evalGateCompare(lhs, op, rhs, quest)
	}
	return isTruthy(quest[expr])
}

func isTruthy(v string) bool {
	if v == "" || v == "0" || v == "false" {
		return false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n != 0
	}
	return true
}

// gateOps is checked in order so that multi-character operators are
// recognized before their single-character prefixes (e.g. ">=" before ">").
var gateOps = []string{">=", "<=", "!=", "==", ">", "<", "="}

func splitGateOp(expr string) (lhs, op, rhs string, ok bool) {
	for _, candidate := range gateOps {
		for i := 0; i+len(candidate) <= len(expr); i++ {
			if expr[i:i+len(candidate)] == candidate {
				return trimSpace(expr[:i]), candidate, trimSpace(expr[i+len(candidate):]), true
			}
		}
	}
	return "", "", "", false
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func evalGateCompare(lhsKey, op, rhs string, quest map[string]string) bool {
	lhs := quest[lhsKey]
	if op == "=" {
		op = "=="
	}

	lhsNum, lhsIsNum := parseInt(lhs)
	rhsNum, rhsIsNum := parseInt(rhs)
	if lhsIsNum && rhsIsNum {
		switch op {
		case ">=":
			return lhsNum >= rhsNum
		case "<=":
			return lhsNum <= rhsNum
		case "!=":
			return lhsNum != rhsNum
		case "==":
			return lhsNum == rhsNum
		case ">":
			return lhsNum > rhsNum
		case "<":
			return lhsNum < rhsNum
		}
	}

	switch op {
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	default:
		return false
	}
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
