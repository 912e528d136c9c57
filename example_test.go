package bayesgo_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/bayesgo"
	"github.com/hupe1980/bayesgo/frame"
	"github.com/hupe1980/bayesgo/graph"
	"github.com/hupe1980/bayesgo/prior"
	"gonum.org/v1/gonum/stat/distuv"
)

// locationModel estimates a latent location from noisy observations.
type locationModel struct{}

func (locationModel) ModelType() string { return "LocationModel" }

func (locationModel) DefaultConfig() bayesgo.Config {
	return bayesgo.Config{
		"mu": {Dist: "Normal", Kwargs: map[string]float64{"mu": 0, "sigma": 10}},
	}
}

func (locationModel) BuildModel(data *frame.Frame, cfg bayesgo.Config, g *graph.Model) error {
	muPrior, err := prior.Resolve(cfg["mu"])
	if err != nil {
		return err
	}
	if err := g.RV("mu", muPrior); err != nil {
		return err
	}

	obs, _ := data.Column("spend")
	return g.Observed("spend", "Normal(mu, 1)", obs, func(p graph.Params) float64 {
		lik := distuv.Normal{Mu: p.Scalar("mu"), Sigma: 1}
		total := 0.0
		for _, x := range obs {
			total += lik.LogProb(x)
		}
		return total
	})
}

func Example() {
	data := frame.New()
	if err := data.AddColumn("spend", []float64{9.8, 10.1, 10.4, 9.9}); err != nil {
		log.Fatal(err)
	}

	model, err := bayesgo.New(locationModel{}, data)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := model.Fit(context.Background(), bayesgo.FitMAP); err != nil {
		log.Fatal(err)
	}

	summary, err := model.FitSummary()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(model)
	_ = summary
	// Output:
	// LocationModel
	// mu ~ Normal(0, 10)
	// spend ~ Normal(mu, 1)
}
