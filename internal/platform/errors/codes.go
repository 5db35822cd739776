// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Catalog lookup errors
	CodeUnknownPrecept  Code = "UNKNOWN_PRECEPT"
	CodeUnknownNumen    Code = "UNKNOWN_NUMEN"
	CodeUnknownModifier Code = "UNKNOWN_MODIFIER"
	CodeCatalogInvalid  Code = "CATALOG_INVALID"

	// Selection errors
	CodeInvalidModifierRank    Code = "INVALID_MODIFIER_RANK"
	CodeInvalidExtraInstances  Code = "INVALID_EXTRA_INSTANCES"
	CodeInvalidSelectionToken  Code = "INVALID_SELECTION_TOKEN"
	CodeConditionWithoutIntent Code = "CONDITION_WITHOUT_INTENT"

	// Ordinance errors
	CodeOrdinanceNameEmpty     Code = "ORDINANCE_NAME_EMPTY"
	CodeOrdinanceNumenMissing  Code = "ORDINANCE_NUMEN_MISSING"
	CodeOrdinanceAlreadyExists Code = "ORDINANCE_ALREADY_EXISTS"

	// Grimoire query errors
	CodeInvalidFilter Code = "INVALID_FILTER"

	// Storage errors
	CodeNotFound     Code = "NOT_FOUND"
	CodeStoreCorrupt Code = "STORE_CORRUPT"

	// Dice errors
	CodeDiceMissing     Code = "DICE_MISSING"
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeUnknownPrecept,
		CodeUnknownNumen,
		CodeUnknownModifier,
		CodeInvalidModifierRank,
		CodeInvalidExtraInstances,
		CodeInvalidSelectionToken,
		CodeConditionWithoutIntent,
		CodeOrdinanceNameEmpty,
		CodeOrdinanceNumenMissing,
		CodeInvalidFilter,
		CodeDiceMissing,
		CodeDiceInvalidSpec:
		return codes.InvalidArgument

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeOrdinanceAlreadyExists:
		return codes.AlreadyExists

	// DataLoss - persisted state cannot be read back
	case CodeStoreCorrupt:
		return codes.DataLoss

	// FailedPrecondition - static data is unusable
	case CodeCatalogInvalid:
		return codes.FailedPrecondition

	default:
		return codes.Internal
	}
}
