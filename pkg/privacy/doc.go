// Package privacy implements the protocol layer of a confidential-transaction
// scheme built on Pedersen commitments, bulletproof range proofs and ECDSA.
//
// Amounts are hidden in commitments C = blind·G + value·H. A transaction
// balances when Σ inputs − Σ outputs = excess·G, which the sender proves by
// signing a digest with the blinding excess. Each output carries a range proof
// showing its amount lies in [0, 2^64).
//
// Curve arithmetic and the bulletproof argument are consumed through the
// CurveEngine interface; package crypto provides the secp256k1
// implementation. All operations hang off PrivacyEngine:
//
//	engine, err := crypto.NewEngine(cfg.RangeProofBits, cfg.Generators)
//	p, err := privacy.New(engine, privacy.WithConfig(cfg))
//	pub, priv, err := p.GenerateKeyPair()
//	c, err := p.CreateCommitment(100, blind[:])
//
// Every failure is an *Error carrying one ErrorCode of a closed taxonomy.
package privacy
