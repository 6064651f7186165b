package batchnorm

// ReferenceVarianceToInvVariance is the sequential definition of
// VarianceToInvVariance over len(variance) channels.
func ReferenceVarianceToInvVariance[T Float](variance []T, epsilon float64, invVariance []T) {
	eps := T(epsilon)
	for i, v := range variance {
		invVariance[i] = invStd(v, eps)
	}
}

// ReferenceInvVarianceToVariance is the sequential definition of
// InvVarianceToVariance over len(variance) channels.
func ReferenceInvVarianceToVariance[T Float](epsilon float64, sampleSize int, variance []T, opts ...Option) {
	o := buildOptions(opts)
	eps := T(epsilon)
	correction := besselFactor[T](sampleSize)
	for i, inv := range variance {
		variance[i] = varianceFromInvStd(inv, eps, correction, o.precision)
	}
}
