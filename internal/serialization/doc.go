// Package serialization reads and writes statistic buffers as SafeTensors files.
//
// SafeTensors is the format HuggingFace checkpoints use, so per-channel
// running variances can be taken straight from a trained model:
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes]
//
// Files written by this package record a SHA-256 of the data section under
// the "checksum" metadata key; readers verify it when present.
//
// Example usage:
//
//	stats, meta, err := serialization.ReadFile("bn.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	inv, err := backend.VarianceToInvVariance(stats["bn1.running_var"], 1e-5)
//	...
//	err = serialization.WriteFile("inv.safetensors", map[string]*tensor.RawTensor{"bn1.inv_std": inv}, meta)
package serialization
