// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type NotReadyError GenericError
type ProcessError GenericError
type ProofError GenericError
type TimeoutError GenericError

// common errors - keep in alphabetic order
var (
	ErrBatchEmpty                   = InvalidError("batch contains no updates")
	ErrCertificateFileAlreadyExists = ExistsError("certificate file already exists")
	ErrDuplicateFeed                = InvalidError("duplicate feed id in batch")
	ErrInvalidConfiguration         = InvalidError("invalid configuration")
	ErrInvalidCount                 = InvalidError("invalid count")
	ErrInvalidFeedID                = InvalidError("invalid feed id")
	ErrInvalidFrame                 = InvalidError("invalid feed message frames")
	ErrInvalidHasher                = InvalidError("invalid hasher")
	ErrInvalidIPAddress             = InvalidError("invalid IP address")
	ErrInvalidPriceRecord           = InvalidError("invalid price record")
	ErrInvalidPrivateKey            = InvalidError("invalid private key")
	ErrInvalidPrivateKeyFile        = InvalidError("invalid private key file")
	ErrInvalidProof                 = InvalidError("invalid proof encoding")
	ErrInvalidPublicKey             = InvalidError("invalid public key")
	ErrInvalidPublicKeyFile         = InvalidError("invalid public key file")
	ErrInvalidSizeSlots             = InvalidError("size slots must be positive")
	ErrInvalidStructPointer         = InvalidError("invalid struct pointer")
	ErrInvalidTime                  = InvalidError("invalid time")
	ErrKeyFileAlreadyExists         = ExistsError("key file already exists")
	ErrMalformedBatch               = InvalidError("malformed batch")
	ErrMissingParameters            = InvalidError("missing parameters")
	ErrNotConnected                 = NotFoundError("not connected")
	ErrNotFound                     = NotFoundError("not found")
	ErrNotInitialised               = NotFoundError("not initialised")
	ErrNotReady                     = NotReadyError("not ready")
	ErrProofVerificationFailed      = ProofError("proof verification failed")
	ErrRateLimiting                 = ProcessError("rate limiting")
	ErrSlotImmutable                = ExistsError("slot already committed with different content")
	ErrSlotMismatch                 = InvalidError("slot does not match batch")
	ErrSlotOutOfOrder               = ProcessError("slot is older than latest committed slot")
	ErrSlotTooOld                   = ProcessError("slot is older than the cache window")
	ErrUpstreamRejected             = InvalidError("upstream rejected request")
	ErrUpstreamResponse             = ProcessError("unexpected upstream response")
	ErrUpstreamTimeout              = TimeoutError("upstream timeout")
	ErrWrongHasherForRoot           = InvalidError("hasher width does not match root")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e NotReadyError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e ProofError) Error() string    { return string(e) }
func (e TimeoutError) Error() string  { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool  { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool { var x NotFoundError; return errors.As(e, &x) }
func IsErrNotReady(e error) bool { var x NotReadyError; return errors.As(e, &x) }
func IsErrProcess(e error) bool  { var x ProcessError; return errors.As(e, &x) }
func IsErrProof(e error) bool    { var x ProofError; return errors.As(e, &x) }
func IsErrTimeout(e error) bool  { var x TimeoutError; return errors.As(e, &x) }
