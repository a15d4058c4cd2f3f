/*

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dependency_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/ipojo-go/depresolver/pkg/dependency"
	"github.com/ipojo-go/depresolver/pkg/registry/fake"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

type noopListener struct{}

func (noopListener) Validate(*dependency.Model)   {}
func (noopListener) Invalidate(*dependency.Model) {}
func (noopListener) OnServiceArrival(*dependency.Model, *transform.Reference)      {}
func (noopListener) OnServiceDeparture(*dependency.Model, *transform.Reference)    {}
func (noopListener) OnServiceModification(*dependency.Model, *transform.Reference) {}

var _ = Describe("DynamicPriority binding", func() {
	const spec = "example.ginkgo.Greeter"

	var (
		reg   *fake.Registry
		model *dependency.Model
	)

	BeforeEach(func() {
		dependency.RegisterSpecification(spec)
		reg = fake.New(spec)

		var err error
		model, err = dependency.New(
			dependency.Config{Specification: spec, Policy: "dynamic-priority"},
			dependency.Identity{DependencyID: "ginkgo-demo"},
			reg, noopListener{}, nil, nil,
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Start(context.Background())).To(Succeed())
	})

	AfterEach(func() {
		model.Stop()
	})

	It("always tracks the highest-ranked currently-available provider", func() {
		reg.Register(fake.Ref{ID: 1, Rank: 0}, "low")
		Eventually(func() bool {
			first, ok := model.GetFirstService()
			return ok && first.ServiceID() == 1
		}).Should(BeTrue())

		reg.Register(fake.Ref{ID: 2, Rank: 100}, "high")
		first, ok := model.GetFirstService()
		Expect(ok).To(BeTrue())
		Expect(first.ServiceID()).To(BeEquivalentTo(2))

		reg.Unregister(2)
		first, ok = model.GetFirstService()
		Expect(ok).To(BeTrue())
		Expect(first.ServiceID()).To(BeEquivalentTo(1))
	})

	It("is Unresolved when nothing has ever arrived", func() {
		Expect(model.GetState()).To(Equal(dependency.Unresolved))
		Expect(model.IsEmpty()).To(BeTrue())
	})
})

var _ = Describe("Optional dependency", func() {
	const spec = "example.ginkgo.OptionalGreeter"

	It("starts Resolved with an empty bound set", func() {
		dependency.RegisterSpecification(spec)
		reg := fake.New(spec)
		model, err := dependency.New(
			dependency.Config{Specification: spec, Policy: "dynamic", Optional: true},
			dependency.Identity{DependencyID: "ginkgo-optional"},
			reg, noopListener{}, nil, nil,
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Start(context.Background())).To(Succeed())
		defer model.Stop()

		Expect(model.GetState()).To(Equal(dependency.Resolved))
		Expect(model.IsEmpty()).To(BeTrue())
	})
})
