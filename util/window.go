// Package util holds small numeric helpers shared by the pipeline.
package util

import "math"

// MovingWindow keeps the running mean and standard deviation of the last Cap
// values pushed into it.
//
// Values live in a fixed ring; the oldest slot is overwritten once the window
// is full. Sums are kept incrementally so Update is O(1).
type MovingWindow struct {
	ring []float64
	head int // index of the oldest value

	length int

	sum   float64
	sumSq float64

	average float64
	stddev  float64
}

// NewMovingWindow returns a new moving window holding at most size values.
func NewMovingWindow(size int) *MovingWindow {
	if size < 1 {
		size = 1
	}

	return &MovingWindow{ring: make([]float64, size)}
}

func (mw *MovingWindow) calcFinal() (float64, float64) {
	if mw.length == 0 {
		mw.average, mw.stddev = 0, 0
		return 0, 0
	}

	n := float64(mw.length)
	mw.average = mw.sum / n

	if mw.length > 1 {
		// population variance; clamp rounding noise below zero
		mw.stddev = math.Sqrt(math.Max(0, mw.sumSq/n-mw.average*mw.average))
	} else {
		mw.stddev = 0
	}

	return mw.average, mw.stddev
}

// Update pushes value, evicting the oldest one when full, and returns the new
// mean and standard deviation.
func (mw *MovingWindow) Update(value float64) (float64, float64) {
	capacity := len(mw.ring)

	if mw.length < capacity {
		mw.ring[(mw.head+mw.length)%capacity] = value
		mw.length++
	} else {
		old := mw.ring[mw.head]
		mw.sum -= old
		mw.sumSq -= old * old

		mw.ring[mw.head] = value
		mw.head = (mw.head + 1) % capacity
	}

	mw.sum += value
	mw.sumSq += value * value

	return mw.calcFinal()
}

// Drop removes the count oldest values from the window.
func (mw *MovingWindow) Drop(count int) (float64, float64) {
	for ; count > 0 && mw.length > 0; count-- {
		old := mw.ring[mw.head]
		mw.sum -= old
		mw.sumSq -= old * old

		mw.head = (mw.head + 1) % len(mw.ring)
		mw.length--
	}

	// clear sums so rounding does not accumulate across refills
	if mw.length == 0 {
		mw.head = 0
		mw.sum = 0
		mw.sumSq = 0
	}

	return mw.calcFinal()
}

// Len returns how many items in the window
func (mw *MovingWindow) Len() int {
	return mw.length
}

// Cap returns max size of window
func (mw *MovingWindow) Cap() int {
	return len(mw.ring)
}

// Mean is the moving window average
func (mw *MovingWindow) Mean() float64 {
	return mw.average
}

// StdDev is the moving window standard deviation
func (mw *MovingWindow) StdDev() float64 {
	return mw.stddev
}

// Stats returns the statistics of this window
func (mw *MovingWindow) Stats() (float64, float64) {
	return mw.average, mw.stddev
}
