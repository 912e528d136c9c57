// Package bayesgo provides a Bayesian model lifecycle manager for customer
// analytics workloads.
//
// A model family implements the Definition interface: it names itself,
// declares default priors, and builds a probabilistic graph for a data set.
// bayesgo then manages the rest of the lifecycle uniformly across families:
// prior resolution, fitting (MCMC or MAP), posterior summaries, and artifact
// persistence with identity checking.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	model, _ := bayesgo.New(def, data)
//	idata, _ := model.Fit(ctx, bayesgo.FitMCMC)
//
//	summary, _ := model.FitSummary()
//
// Save and reload:
//
//	_ = model.Save("model.bayes")
//	model, _ = bayesgo.Load("model.bayes", def)
//
// Cloud storage:
//
//	store, _ := s3.New(ctx, "my-bucket", "models/")
//	_ = model.SaveTo(ctx, store, "cohort-2026.bayes")
//	model, _ = bayesgo.LoadFrom(ctx, store, "cohort-2026.bayes", def)
//
// # Identity
//
// A model's identity is a fingerprint of its type and prior configuration.
// It is stored with every saved artifact and verified on load, so an artifact
// can only be loaded by a model definition that reproduces it.
//
// # Priors
//
// Priors are specified by name with keyword arguments, mirroring the usual
// statistical notation:
//
//	cfg := bayesgo.Config{
//	    "alpha": {Dist: "HalfNormal", Kwargs: map[string]float64{"sigma": 10}},
//	}
//	model, _ := bayesgo.New(def, data, bayesgo.WithConfig(cfg))
//
// Unspecified parameters keep the definition's defaults.
package bayesgo

// Version identifies the library release recorded in saved artifacts.
const Version = "0.1.0"
