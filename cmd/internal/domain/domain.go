// Package domain holds the storage contracts shared by every backing
// store implementation.
package domain

import "errors"

// ErrSlotTaken signals that the atomic reserve step found a confirmed
// booking on the requested window. Stores must guarantee that when
// they return it, no part of the attempted mutation is visible.
var ErrSlotTaken = errors.New("slot already booked")
