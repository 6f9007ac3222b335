// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package provision declares the search domain, its master credential and its
// access policy, and reconciles them with AWS.
//
// The workflow mirrors a declarative infrastructure tool:
//
//	p, err := provision.NewProvisioner(cfg, clients, states)
//	plan, err := p.Plan(ctx)      // compare desired with live
//	plan.Render(os.Stdout)        // + create, ~ update, ^ upgrade
//	out, err := p.Apply(ctx, plan)
//	_, err = p.Destroy(ctx, provision.DestroyOptions{})
//
// AWS does all of the actual work: password generation, cluster creation,
// encryption and upgrades. This package only builds the requests, waits for
// the domain to settle and records the result in a storage.StateRepository.
package provision
