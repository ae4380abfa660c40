package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/carbonsim/internal/flow"
)

// Exercises a full stand lifecycle on the toy model: spinup to equilibrium,
// then annual steps with a disturbance and a regeneration transition.
var _ = Describe("stand lifecycle", func() {
	var (
		model   *Model
		builder *toyBuilder
		pools   *flow.Pools
		flux    *flow.Flux
		state   *State
	)

	BeforeEach(func() {
		model, builder = newToyModel(GinkgoTB())
		inv := toyInventory(1)
		inv.Age[0] = 30

		result, err := model.Spinup(inv, &SpinupParams{
			ReturnInterval: []int{50},
			MaxRotations:   []int{20},
			MaxIterations:  DefaultMaxIterations,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.NotConverged).To(BeEmpty())

		pools = result.Pools
		state = result.State
		flux = flow.NewFlux(1, model.Layout().NFlux())
	})

	It("leaves the stand ready to step", func() {
		Expect(state.Age[0]).To(Equal(30))
		Expect(state.Enabled[0]).To(BeTrue())
		Expect(state.GrowthEnabled[0]).To(BeTrue())
		Expect(pools.Row(0)[toySlow]).To(BeNumerically(">", 0))
	})

	It("holds the slow pool near its fixed point over quiet years", func() {
		// spin 20 more annual-only years and watch the drift
		before := pools.Row(0)[toySlow]
		for i := 0; i < 20; i++ {
			Expect(model.Step(pools, flux, state, quietStep(1))).To(Succeed())
		}
		after := pools.Row(0)[toySlow]
		Expect(after).To(BeNumerically("~", before, before*0.05))
	})

	It("recovers carbon after a stand-replacing disturbance", func() {
		// regrow the live pool; spinup ends on the last-pass disturbance
		for i := 0; i < 5; i++ {
			Expect(model.Step(pools, flux, state, quietStep(1))).To(Succeed())
		}
		Expect(pools.Row(0)[toyLive]).To(BeNumerically(">", 0))

		params := quietStep(1)
		params.DisturbanceType[0] = 1
		params.TransitionRule[0] = 9
		Expect(model.Step(pools, flux, state, params)).To(Succeed())

		Expect(builder.transits).To(Equal([]int{9}))
		Expect(state.Age[0]).To(BeZero())
		Expect(state.GrowthEnabled[0]).To(BeFalse())
		Expect(flux.Row(0)[3]).To(BeNumerically(">", 0), "disturbance emissions")

		for i := 0; i < 40; i++ {
			Expect(model.Step(pools, flux, state, quietStep(1))).To(Succeed())
		}
		Expect(state.GrowthEnabled[0]).To(BeTrue())
		Expect(state.Age[0]).To(Equal(39), "two regeneration years do not age the stand")
		Expect(pools.Row(0)[toyLive]).To(BeNumerically(">", 0))
	})
})
