// Package memory keeps scan jobs inside the container's memory budget.
//
// Go does not derive GOMEMLIMIT from cgroup limits. ApplyLimit sets it from
// MEMORY_LIMIT (bytes, usually from the Kubernetes Downward API) scaled by
// MEMORY_RATIO, unless GOMEMLIMIT is already set:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.85"
//
// A Monitor samples the heap and pauses dispatching of new scan tasks when
// usage crosses the pause mark. Tasks already running finish; dispatching
// resumes once usage falls under the resume mark. A 4000×3000 RGBA decode
// alone is about 48 MB, so a handful of concurrent large images can exhaust
// a small container.
package memory
