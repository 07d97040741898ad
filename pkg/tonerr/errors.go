// Package tonerr defines the flat error-kind taxonomy shared by every
// component of the adapter, mirroring the sentinel-error style the upstream reference
// uses across core (e.g. core/cross_chain.go's ErrUnauthorized, ErrNotFound).
package tonerr

import "errors"

// Codec errors (C1).
var (
	ErrBocParsing    = errors.New("boc: parsing error")
	ErrBocEncoding   = errors.New("boc: encoding error")
	ErrInvalidOpCode = errors.New("boc: invalid op code")
)

// Query-id errors (C2).
var (
	ErrInvalidShift     = errors.New("queryid: invalid shift")
	ErrInvalidBitnumber = errors.New("queryid: invalid bitnumber")
	ErrEmergencyOverload = errors.New("queryid: emergency overload")
	ErrShiftOverflow    = errors.New("queryid: shift overflow")
	ErrDatabase         = errors.New("queryid: database error")
	ErrConstruction     = errors.New("queryid: construction error")
)

// Wallet pool errors (C4).
var ErrNoAvailableWallet = errors.New("wallet: no available wallet")

// Broadcast errors (C9).
var ErrInsufficientGas = errors.New("broadcast: insufficient gas")
var ErrJettonRefundUnsupported = errors.New("broadcast: jetton refunds are not supported")

// RPC errors (client collaborator contract).
var (
	ErrConnectionFailed = errors.New("rpc: connection failed")
	ErrBadRequest       = errors.New("rpc: bad request")
	ErrBadResponse      = errors.New("rpc: bad response")
)

// Price conversion errors (C11).
var ErrConversion = errors.New("price: conversion error")
