// Package intervalset implements a range-coalescing set of message ids.
//
// A Set stores its content as closed ranges that are kept sorted, disjoint
// and non-adjacent after every operation:
//
//	s := intervalset.New()
//	_ = s.EnqueueRange(intervalset.Range{From: 100, To: 105})
//	_ = s.Enqueue(106)     // extends [100-105] to [100-106]
//	id, _ := s.Dequeue()   // 100
//
// A Set is not safe for concurrent use; callers serialize access.
package intervalset
