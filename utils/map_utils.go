package utils

func CloneMap[K comparable, V any](m map[K]V) map[K]V {
	cloneM := make(map[K]V)
	for k, v := range m {
		cloneM[k] = v
	}
	return cloneM
}

func UniqueSlice[K comparable](a []K) []K {
	m := make(map[K]bool)
	for i := 0; i < len(a); {
		v := a[i]
		if !m[v] {
			m[v] = true
			i++
			continue
		}
		a = append(a[:i], a[i+1:]...)
	}
	return a
}

func ContainsSlice[K comparable](a []K, v K) bool {
	for _, e := range a {
		if e == v {
			return true
		}
	}
	return false
}

func RemoveSlice[K comparable](a []K, v K) []K {
	for i, e := range a {
		if e == v {
			return append(a[:i], a[i+1:]...)
		}
	}
	return a
}
