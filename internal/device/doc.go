// Package device defines the vocabulary shared by the session core and the
// radio adapters: connection and power states, characteristic capability
// flags, the RadioAdapter collaborator contract with its low-level events,
// and the error kinds reported through OperationFailed.
//
// Concrete radio stacks live in sub-packages (see goble) and translate their
// platform callbacks into the AdapterEvent values declared here.
package device
