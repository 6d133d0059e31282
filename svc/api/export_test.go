package api

var MapError = mapError
