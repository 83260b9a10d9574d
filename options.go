package reshape

import "go.uber.org/zap"

// ReshaperOption configures a Reshaper.
type ReshaperOption func(*Reshaper)

// LoggerReshaperOption sets the logger, zap.NewNop by default.
func LoggerReshaperOption(logger *zap.Logger) ReshaperOption {
	return func(r *Reshaper) {
		r.logger = logger
	}
}

// ConflictPolicyReshaperOption sets the policy for rows populating both
// value columns.
func ConflictPolicyReshaperOption(p ConflictPolicy) ReshaperOption {
	return func(r *Reshaper) {
		r.conflictPolicy = p
	}
}

// KeepEmptyGroupsReshaperOption keeps groups whose rows carry no value at
// all instead of dropping them.
func KeepEmptyGroupsReshaperOption() ReshaperOption {
	return func(r *Reshaper) {
		r.keepEmptyGroups = true
	}
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// LoggerNormalizerOption sets the logger, zap.NewNop by default.
func LoggerNormalizerOption(logger *zap.Logger) NormalizerOption {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// MissingPolicyNormalizerOption sets the policy for rows without a
// conversion factor.
func MissingPolicyNormalizerOption(p MissingFactorPolicy) NormalizerOption {
	return func(n *Normalizer) {
		n.policy = p
	}
}

// StoreOption configures a SQLStore.
type StoreOption func(*SQLStore)

// LoggerStoreOption sets the logger, zap.NewNop by default.
func LoggerStoreOption(logger *zap.Logger) StoreOption {
	return func(s *SQLStore) {
		s.logger = logger
	}
}
