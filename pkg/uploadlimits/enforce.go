package uploadlimits

// Sized is anything with a byte size, such as a candidate file.
type Sized interface {
	Size() int64
}

// Validation describes which candidates were accepted and why others were not.
type Validation[T Sized] struct {
	Accepted          []T
	Oversized         []T
	ExtraFilesIgnored bool
	TotalSizeExceeded bool
}

// Enforce filters candidates against the limits, given how many images and
// bytes were already accepted. Candidate order is preserved.
func Enforce[T Sized](files []T, currentCount int, currentTotal int64, limits Limits) Validation[T] {
	availableSlots := limits.MaxFiles - currentCount
	if availableSlots < 0 {
		availableSlots = 0
	}

	result := Validation[T]{
		Accepted:  make([]T, 0, len(files)),
		Oversized: []T{},
	}
	runningTotal := currentTotal

	for _, file := range files {
		size := file.Size()
		if size > limits.MaxFileBytes {
			result.Oversized = append(result.Oversized, file)
			continue
		}

		if len(result.Accepted) >= availableSlots {
			result.ExtraFilesIgnored = true
			continue
		}

		if runningTotal+size > limits.MaxTotalBytes {
			result.TotalSizeExceeded = true
			continue
		}

		result.Accepted = append(result.Accepted, file)
		runningTotal += size
	}

	if len(files) > 0 && availableSlots == 0 {
		result.ExtraFilesIgnored = true
	}

	return result
}
