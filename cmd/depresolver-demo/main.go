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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ipojo-go/depresolver/pkg/dependency"
	depmetrics "github.com/ipojo-go/depresolver/pkg/metrics"
	"github.com/ipojo-go/depresolver/pkg/registry"
	"github.com/ipojo-go/depresolver/pkg/registry/fake"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

type printingListener struct{}

func (printingListener) Validate(dep *dependency.Model) {
	fmt.Printf("[validate] bound=%v\n", refIDs(dep.GetBound()))
}

func (printingListener) Invalidate(dep *dependency.Model) {
	fmt.Printf("[invalidate] state=%s\n", dep.GetState())
}

func (printingListener) OnServiceArrival(_ *dependency.Model, ref *transform.Reference) {
	fmt.Printf("[arrival] service.id=%d\n", ref.ServiceID())
}

func (printingListener) OnServiceDeparture(_ *dependency.Model, ref *transform.Reference) {
	fmt.Printf("[departure] service.id=%d\n", ref.ServiceID())
}

func (printingListener) OnServiceModification(_ *dependency.Model, ref *transform.Reference) {
	fmt.Printf("[modified] service.id=%d\n", ref.ServiceID())
}

func refIDs(refs []*transform.Reference) []int64 {
	out := make([]int64, len(refs))
	for i, r := range refs {
		out[i] = r.ServiceID()
	}
	return out
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "dependency descriptor (YAML); empty uses a hard-coded mandatory dynamic dependency")
	var specification string
	flag.StringVar(&specification, "specification", "example.Greeter", "service specification this dependency tracks")
	flag.Parse()

	dependency.RegisterSpecification(specification)

	cfg := dependency.Config{Specification: specification, Policy: "dynamic"}
	if configPath != "" {
		loaded, err := dependency.LoadConfigYAML(configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	reg := fake.New(specification)

	promReg := prometheus.NewRegistry()
	recorder := depmetrics.NewRecorder(promReg)
	listener := &depmetrics.RecordingListener{
		DependencyID: "demo",
		Recorder:     recorder,
		Next:         printingListener{},
	}

	model, err := dependency.New(cfg, dependency.Identity{DependencyID: "demo"}, reg, listener, nil, nil)
	if err != nil {
		log.Fatalf("building dependency model: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := model.Start(ctx); err != nil {
		log.Fatalf("starting dependency model: %v", err)
	}
	defer model.Stop()

	reg.Register(fake.Ref{ID: 1, Rank: 0, Props: registry.Properties{"label": "first"}}, "greeter-1")
	reg.Register(fake.Ref{ID: 2, Rank: 5, Props: registry.Properties{"label": "second"}}, "greeter-2")

	fmt.Printf("state=%s bound=%v\n", model.GetState(), refIDs(model.GetBound()))

	reg.Unregister(2)
	fmt.Printf("state=%s bound=%v\n", model.GetState(), refIDs(model.GetBound()))
}
