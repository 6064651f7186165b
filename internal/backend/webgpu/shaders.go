//go:build windows

package webgpu

// workgroupSize is the number of invocations per workgroup.
const workgroupSize = 256

// Params is shared by both shaders (16 bytes, uniform aligned):
// size, sample_size, epsilon, fast.

// varianceToInvVarianceShader computes inv_variance = inverseSqrt(variance + epsilon).
const varianceToInvVarianceShader = `
struct Params {
    size: u32,
    sample_size: u32,
    epsilon: f32,
    fast: u32,
}

@group(0) @binding(0) var<storage, read> variance: array<f32>;
@group(0) @binding(1) var<storage, read_write> inv_variance: array<f32>;
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let stride = groups.x * 256u;
    for (var i = gid.x; i < params.size; i = i + stride) {
        inv_variance[i] = inverseSqrt(variance[i] + params.epsilon);
    }
}
`

// invVarianceToVarianceShader recovers the Bessel-corrected variance in place.
// With fast set, finite denominators above 2^126 flush the reciprocal to zero.
const invVarianceToVarianceShader = `
struct Params {
    size: u32,
    sample_size: u32,
    epsilon: f32,
    fast: u32,
}

@group(0) @binding(0) var<storage, read_write> variance: array<f32>;
@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let stride = groups.x * 256u;
    let correction = f32(params.sample_size) / f32(max(params.sample_size, 2u) - 1u);
    for (var i = gid.x; i < params.size; i = i + stride) {
        let inv = variance[i];
        let d = inv * inv;
        var r = 1.0 / d;
        if (params.fast == 1u && abs(d) > 8.507059e37 && abs(d) <= 3.4028235e38) {
            r = 0.0;
        }
        let v = (r - params.epsilon) * correction;
        variance[i] = select(0.0, v, v > 0.0);
    }
}
`
